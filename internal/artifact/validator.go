package artifact

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/trustblock/trustblock-cli/internal/failures"
)

const (
	validateOperationConstant       = "validate report"
	pdfHeaderConstant               = "%PDF-"
	openReportTemplateConstant      = "open %s: %w"
	readHeaderTemplateConstant      = "read header of %s: %w"
	missingHeaderTemplateConstant   = "%s is not a PDF document"
	structuralCheckTemplateConstant = "%s failed PDF validation: %w"
)

// Validator checks that a file is a well-formed report.
type Validator interface {
	Validate(path string) error
}

// StructuralCheck validates the internal structure of a PDF file.
type StructuralCheck func(path string) error

// PDFValidator checks the PDF header and then the document structure.
type PDFValidator struct {
	structuralCheck StructuralCheck
}

// NewPDFValidator constructs a PDFValidator. A nil check uses pdfcpu in relaxed mode.
func NewPDFValidator(structuralCheck StructuralCheck) PDFValidator {
	if structuralCheck == nil {
		structuralCheck = validateWithPDFCPU
	}
	return PDFValidator{structuralCheck: structuralCheck}
}

// Validate returns an invalid input failure when path is not a readable PDF document.
func (validator PDFValidator) Validate(path string) error {
	reportFile, openError := os.Open(path)
	if openError != nil {
		return failures.New(failures.ErrInvalidInput, validateOperationConstant, fmt.Errorf(openReportTemplateConstant, path, openError))
	}
	defer reportFile.Close()

	header := make([]byte, len(pdfHeaderConstant))
	if _, readError := io.ReadFull(reportFile, header); readError != nil {
		if readError == io.EOF || readError == io.ErrUnexpectedEOF {
			return failures.Newf(failures.ErrInvalidInput, validateOperationConstant, missingHeaderTemplateConstant, path)
		}
		return failures.New(failures.ErrInvalidInput, validateOperationConstant, fmt.Errorf(readHeaderTemplateConstant, path, readError))
	}
	if !bytes.Equal(header, []byte(pdfHeaderConstant)) {
		return failures.Newf(failures.ErrInvalidInput, validateOperationConstant, missingHeaderTemplateConstant, path)
	}

	if checkError := validator.structuralCheck(path); checkError != nil {
		return failures.New(failures.ErrInvalidInput, validateOperationConstant, fmt.Errorf(structuralCheckTemplateConstant, path, checkError))
	}
	return nil
}

var disableConfigDirectoryOnce sync.Once

func validateWithPDFCPU(path string) error {
	disableConfigDirectoryOnce.Do(api.DisableConfigDir)

	configuration := model.NewDefaultConfiguration()
	configuration.ValidationMode = model.ValidationRelaxed
	return api.ValidateFile(path, configuration)
}
