package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// DossierError is a categorized failure raised while turning a filing into a receipt.
type DossierError struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Context   string    `json:"context,omitempty"`
	FilePath  string    `json:"file_path,omitempty"`
	Field     string    `json:"field,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Cause     error     `json:"-"`
}

// ErrorType represents the categories callers need to tell apart
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeDocumentUnreadable: the filing cannot be opened or parsed as XML.
	ErrorTypeDocumentUnreadable
	// ErrorTypeUnrecognizedKind: XML is fine but holds no DT, DICT, DC or ATU body.
	ErrorTypeUnrecognizedKind
	// ErrorTypeFieldAbsent: a lookup returned nothing. Never surfaced by the parser.
	ErrorTypeFieldAbsent
	// ErrorTypeDateParseFailure: declaration_at is not an ISO-8601 timestamp.
	ErrorTypeDateParseFailure
	// ErrorTypeGeometryConversion: a boundary fragment could not be converted.
	ErrorTypeGeometryConversion
	ErrorTypeFormFill
	ErrorTypeRegister
	ErrorTypeArchive
	ErrorTypeSecurityRestriction
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

// Error implements the error interface
func (e *DossierError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	if e.Context != "" {
		msg += ": " + e.Context
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *DossierError) Unwrap() error {
	return e.Cause
}

// Is matches another *DossierError of the same type, so sentinel values such
// as ErrDocumentUnreadable work with errors.Is.
func (e *DossierError) Is(target error) bool {
	t, ok := target.(*DossierError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeDocumentUnreadable:
		return "DOCUMENT_UNREADABLE"
	case ErrorTypeUnrecognizedKind:
		return "UNRECOGNIZED_DECLARATION_KIND"
	case ErrorTypeFieldAbsent:
		return "FIELD_ABSENT"
	case ErrorTypeDateParseFailure:
		return "DATE_PARSE_FAILURE"
	case ErrorTypeGeometryConversion:
		return "GEOMETRY_CONVERSION_FAILURE"
	case ErrorTypeFormFill:
		return "FORM_FILL"
	case ErrorTypeRegister:
		return "REGISTER"
	case ErrorTypeArchive:
		return "ARCHIVE"
	case ErrorTypeSecurityRestriction:
		return "SECURITY_RESTRICTION"
	default:
		return "UNKNOWN"
	}
}

// GetSeverity returns the severity level for a given error type
func (et ErrorType) GetSeverity() ErrorSeverity {
	switch et {
	case ErrorTypeDocumentUnreadable, ErrorTypeDateParseFailure:
		return SeverityFatal
	case ErrorTypeUnrecognizedKind, ErrorTypeGeometryConversion:
		return SeverityWarning
	case ErrorTypeFieldAbsent:
		return SeverityInfo
	default:
		return SeverityError
	}
}

// IsRecoverable reports whether processing may continue after this kind of error.
func (et ErrorType) IsRecoverable() bool {
	switch et {
	case ErrorTypeFieldAbsent, ErrorTypeGeometryConversion:
		return true
	default:
		return false
	}
}

// Sentinels for errors.Is.
var (
	ErrDocumentUnreadable  = &DossierError{Type: ErrorTypeDocumentUnreadable}
	ErrUnrecognizedKind    = &DossierError{Type: ErrorTypeUnrecognizedKind}
	ErrFieldAbsent         = &DossierError{Type: ErrorTypeFieldAbsent}
	ErrDateParseFailure    = &DossierError{Type: ErrorTypeDateParseFailure}
	ErrGeometryConversion  = &DossierError{Type: ErrorTypeGeometryConversion}
	ErrFormFill            = &DossierError{Type: ErrorTypeFormFill}
	ErrRegister            = &DossierError{Type: ErrorTypeRegister}
	ErrArchive             = &DossierError{Type: ErrorTypeArchive}
	ErrSecurityRestriction = &DossierError{Type: ErrorTypeSecurityRestriction}
)

// New creates a DossierError of the given type
func New(errorType ErrorType, message string) *DossierError {
	return &DossierError{
		Type:      errorType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap wraps err as a DossierError of the given type
func Wrap(errorType ErrorType, message string, err error) *DossierError {
	e := New(errorType, message)
	e.Cause = err
	return e
}

// WithContext adds context to an existing DossierError
func (e *DossierError) WithContext(context string) *DossierError {
	e.Context = context
	return e
}

// WithFile adds file path information to an existing DossierError
func (e *DossierError) WithFile(filePath string) *DossierError {
	e.FilePath = filePath
	return e
}

// WithField names the field involved
func (e *DossierError) WithField(field string) *DossierError {
	e.Field = field
	return e
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var de *DossierError
	if stderrors.As(err, &de) {
		return de.Type
	}
	return ErrorTypeUnknown
}

// From returns err as a DossierError, wrapping it as ErrorTypeUnknown when it
// carries none.
func From(err error) *DossierError {
	var de *DossierError
	if stderrors.As(err, &de) {
		return de
	}
	return Wrap(ErrorTypeUnknown, "unexpected failure", err)
}

// IsCritical returns true if this error is fatal for the operation
func (e *DossierError) IsCritical() bool {
	return e.Type.GetSeverity() == SeverityFatal
}

// Collection gathers the non-fatal problems met while processing one filing.
type Collection struct {
	Errors   []*DossierError `json:"errors"`
	Warnings []*DossierError `json:"warnings"`
	FilePath string          `json:"file_path,omitempty"`
}

// NewCollection creates an empty collection for filePath
func NewCollection(filePath string) *Collection {
	return &Collection{
		Errors:   make([]*DossierError, 0),
		Warnings: make([]*DossierError, 0),
		FilePath: filePath,
	}
}

// Add files err under errors or warnings according to its severity
func (c *Collection) Add(err *DossierError) {
	if err.FilePath == "" && c.FilePath != "" {
		err.FilePath = c.FilePath
	}
	switch err.Type.GetSeverity() {
	case SeverityInfo, SeverityWarning:
		c.Warnings = append(c.Warnings, err)
	default:
		c.Errors = append(c.Errors, err)
	}
}

// Count returns the total number of errors and warnings
func (c *Collection) Count() (errors, warnings int) {
	return len(c.Errors), len(c.Warnings)
}

// Summary returns a text summary of all errors and warnings
func (c *Collection) Summary() string {
	errorCount, warningCount := c.Count()
	if errorCount == 0 && warningCount == 0 {
		return "No errors or warnings"
	}
	return fmt.Sprintf("Found %d error(s) and %d warning(s)", errorCount, warningCount)
}
