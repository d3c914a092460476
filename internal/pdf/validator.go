package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Validator checks receipt templates, generated receipts and filings before
// they are read or written.
type Validator struct {
	maxFileSize int64
}

// CheckResult is the outcome of a file check
type CheckResult struct {
	Path    string `json:"path"`
	Valid   bool   `json:"valid"`
	Pages   int    `json:"pages,omitempty"`
	Message string `json:"message,omitempty"`
}

// NewValidator creates a new validator with the given size limit in bytes
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// CheckPDF validates a PDF and reports its page count. Validation failures
// are reported in the result, not as an error.
func (v *Validator) CheckPDF(path string) *CheckResult {
	result := &CheckResult{Path: path}

	pages, err := v.validatePDFFile(path)
	if err != nil {
		result.Message = err.Error()
		return result
	}

	result.Valid = true
	result.Pages = pages
	return result
}

// ValidateTemplate returns an error unless path is a readable PDF.
func (v *Validator) ValidateTemplate(path string) error {
	_, err := v.validatePDFFile(path)
	return err
}

// IsValidPDF performs a quick check to see if a file is a valid PDF
func (v *Validator) IsValidPDF(path string) bool {
	_, err := v.validatePDFFile(path)
	return err == nil
}

// ValidateFiling checks that path names a non-empty XML file within the size
// limit. Well-formedness is left to the parser.
func (v *Validator) ValidateFiling(path string) error {
	info, err := v.stat(path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(filepath.Ext(path), ".xml") {
		return fmt.Errorf("file is not an XML filing: %s", path)
	}
	return v.checkSize(path, info)
}

func (v *Validator) validatePDFFile(path string) (int, error) {
	info, err := v.stat(path)
	if err != nil {
		return 0, err
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return 0, fmt.Errorf("file is not a PDF: %s", path)
	}
	if err := v.checkSize(path, info); err != nil {
		return 0, err
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("invalid PDF file: %w", err)
	}
	defer f.Close()

	return r.NumPage(), nil
}

func (v *Validator) stat(path string) (os.FileInfo, error) {
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}
	return info, nil
}

func (v *Validator) checkSize(path string, info os.FileInfo) error {
	if info.Size() == 0 {
		return fmt.Errorf("file is empty: %s", path)
	}
	if v.maxFileSize > 0 && info.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			info.Size(), v.maxFileSize)
	}
	return nil
}
