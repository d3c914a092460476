package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDossierError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *DossierError
		want string
	}{
		{
			name: "message only",
			err:  New(ErrorTypeFormFill, "no template configured"),
			want: "[FORM_FILL] no template configured",
		},
		{
			name: "with context",
			err:  New(ErrorTypeDateParseFailure, "invalid closure date").WithContext("demain"),
			want: "[DATE_PARSE_FAILURE] invalid closure date: demain",
		},
		{
			name: "with cause",
			err:  Wrap(ErrorTypeDocumentUnreadable, "invalid filing", fmt.Errorf("file is empty")),
			want: "[DOCUMENT_UNREADABLE] invalid filing: file is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestDossierError_Is(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := fmt.Errorf("close 2024: %w", Wrap(ErrorTypeArchive, "cannot write archive", cause).WithFile("/tmp/a.zip"))

	assert.ErrorIs(t, err, ErrArchive)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrRegister)
	assert.Equal(t, ErrorTypeArchive, TypeOf(err))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(cause))

	var de *DossierError
	require.True(t, stderrors.As(err, &de))
	assert.Equal(t, "/tmp/a.zip", de.FilePath)
	assert.False(t, de.Timestamp.IsZero())
}

func TestFrom(t *testing.T) {
	typed := New(ErrorTypeRegister, "record has no teleservice number").WithField("no_teleservice")
	assert.Same(t, typed, From(fmt.Errorf("upsert: %w", typed)))

	plain := fmt.Errorf("context canceled")
	wrapped := From(plain)
	assert.Equal(t, ErrorTypeUnknown, wrapped.Type)
	assert.ErrorIs(t, wrapped, plain)
}

func TestErrorType_Severity(t *testing.T) {
	tests := []struct {
		typ         ErrorType
		severity    ErrorSeverity
		recoverable bool
	}{
		{ErrorTypeDocumentUnreadable, SeverityFatal, false},
		{ErrorTypeDateParseFailure, SeverityFatal, false},
		{ErrorTypeUnrecognizedKind, SeverityWarning, false},
		{ErrorTypeGeometryConversion, SeverityWarning, true},
		{ErrorTypeFieldAbsent, SeverityInfo, true},
		{ErrorTypeFormFill, SeverityError, false},
		{ErrorTypeUnknown, SeverityError, false},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			assert.Equal(t, tt.severity, tt.typ.GetSeverity())
			assert.Equal(t, tt.recoverable, tt.typ.IsRecoverable())
			assert.Equal(t, tt.severity == SeverityFatal, New(tt.typ, "x").IsCritical())
		})
	}
}

func TestCollection(t *testing.T) {
	c := NewCollection("/srv/dict/in")
	assert.Equal(t, "No errors or warnings", c.Summary())

	c.Add(New(ErrorTypeUnrecognizedKind, "no declaration body"))
	c.Add(New(ErrorTypeDocumentUnreadable, "invalid filing").WithFile("/srv/dict/in/broken.xml"))
	c.Add(New(ErrorTypeFormFill, "cannot fill template"))

	errorCount, warningCount := c.Count()
	assert.Equal(t, 2, errorCount)
	assert.Equal(t, 1, warningCount)
	assert.Equal(t, "/srv/dict/in", c.Warnings[0].FilePath)
	assert.Equal(t, "/srv/dict/in/broken.xml", c.Errors[0].FilePath, "own path kept")
	assert.Equal(t, "Found 2 error(s) and 1 warning(s)", c.Summary())
}
