package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	missingIdentifierMessageConstant      = "response carries no project id"
	unsupportedIdentifierTemplateConstant = "unsupported project id %s"
)

var errMissingIdentifier = errors.New(missingIdentifierMessageConstant)

// decodeIdentifier accepts registry ids encoded as JSON strings or numbers.
func decodeIdentifier(rawIdentifier json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(rawIdentifier)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", errMissingIdentifier
	}

	var textIdentifier string
	if json.Unmarshal(trimmed, &textIdentifier) == nil {
		if len(textIdentifier) == 0 {
			return "", errMissingIdentifier
		}
		return textIdentifier, nil
	}

	var numericIdentifier json.Number
	if json.Unmarshal(trimmed, &numericIdentifier) == nil {
		return numericIdentifier.String(), nil
	}

	return "", fmt.Errorf(unsupportedIdentifierTemplateConstant, string(trimmed))
}

