package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/trustblock/trustblock-cli/internal/failures"
)

const (
	loadAuditDataOperationConstant  = "load audit data"
	yamlExtensionConstant           = ".yaml"
	ymlExtensionConstant            = ".yml"
	readAuditDataTemplateConstant   = "read %s: %w"
	decodeAuditDataTemplateConstant = "decode %s: %w"
)

// FileReader reads a file from disk.
type FileReader func(path string) ([]byte, error)

// Loader reads audit data files in JSON or YAML form.
type Loader struct {
	readFile FileReader
}

// NewLoader constructs a Loader. A nil reader falls back to os.ReadFile.
func NewLoader(readFile FileReader) Loader {
	if readFile == nil {
		readFile = os.ReadFile
	}
	return Loader{readFile: readFile}
}

// LoadAuditData reads the audit data at path using the operating system file reader.
func LoadAuditData(path string) (AuditData, error) {
	return NewLoader(nil).Load(path)
}

// Load reads and decodes the audit data at path. YAML is selected by the .yaml or .yml extension.
func (loader Loader) Load(path string) (AuditData, error) {
	content, readError := loader.readFile(path)
	if readError != nil {
		kind := failures.ErrIO
		if errors.Is(readError, fs.ErrNotExist) {
			kind = failures.ErrNotFound
		}
		return AuditData{}, failures.New(kind, loadAuditDataOperationConstant, fmt.Errorf(readAuditDataTemplateConstant, path, readError))
	}

	auditData := AuditData{}
	var decodeError error
	switch strings.ToLower(filepath.Ext(path)) {
	case yamlExtensionConstant, ymlExtensionConstant:
		decodeError = yaml.Unmarshal(content, &auditData)
	default:
		decodeError = json.Unmarshal(content, &auditData)
	}
	if decodeError != nil {
		return AuditData{}, failures.New(failures.ErrInvalidInput, loadAuditDataOperationConstant, fmt.Errorf(decodeAuditDataTemplateConstant, path, decodeError))
	}

	auditData.Project.ID = ""
	return auditData, nil
}
