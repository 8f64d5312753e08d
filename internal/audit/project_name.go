package audit

import (
	"github.com/trustblock/trustblock-cli/internal/failures"
)

const (
	// ProjectNameByteLength is the width of the on-chain project name field.
	ProjectNameByteLength = 28

	projectNameOperationConstant      = "encode project name"
	projectNameLengthTemplateConstant = "project name must be 1 to %d bytes, got %d"
)

// ProjectNameBytes zero-pads the raw project name bytes to the on-chain width.
func ProjectNameBytes(name string) ([ProjectNameByteLength]byte, error) {
	var encoded [ProjectNameByteLength]byte
	if len(name) == 0 || len(name) > ProjectNameByteLength {
		return encoded, failures.Newf(failures.ErrInvalidInput, projectNameOperationConstant, projectNameLengthTemplateConstant, ProjectNameByteLength, len(name))
	}
	copy(encoded[:], name)
	return encoded, nil
}
