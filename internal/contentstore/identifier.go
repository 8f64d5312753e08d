package contentstore

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/trustblock/trustblock-cli/internal/failures"
)

const (
	validateIdentifierOperationConstant = "validate content identifier"
	gatewayURLTemplateConstant          = "https://%s%s"
	cidV0LengthConstant                 = 46
	cidV0PrefixConstant                 = "Qm"
	cidV0DecodedLengthConstant          = 34
	sha256MultihashCodeConstant         = 0x12
	sha256DigestLengthConstant          = 0x20
	cidV1Base32PrefixConstant           = "b"
	cidV1VersionConstant                = 0x01
	cidV1MinimumDecodedLengthConstant   = 4
	emptyIdentifierMessageConstant      = "content identifier is empty"
	malformedIdentifierTemplateConstant = "malformed content identifier %q"
)

var lowerBase32Encoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// ValidateContentIdentifier accepts CIDv0 base58 sha2-256 multihashes and CIDv1 base32 identifiers.
func ValidateContentIdentifier(contentIdentifier string) error {
	if len(contentIdentifier) == 0 {
		return failures.Newf(failures.ErrUpstreamFailure, validateIdentifierOperationConstant, emptyIdentifierMessageConstant)
	}

	if strings.HasPrefix(contentIdentifier, cidV0PrefixConstant) && len(contentIdentifier) == cidV0LengthConstant {
		decoded, decodeError := base58.Decode(contentIdentifier)
		if decodeError == nil && len(decoded) == cidV0DecodedLengthConstant && decoded[0] == sha256MultihashCodeConstant && decoded[1] == sha256DigestLengthConstant {
			return nil
		}
		return failures.Newf(failures.ErrUpstreamFailure, validateIdentifierOperationConstant, malformedIdentifierTemplateConstant, contentIdentifier)
	}

	if strings.HasPrefix(contentIdentifier, cidV1Base32PrefixConstant) {
		decoded, decodeError := lowerBase32Encoding.DecodeString(strings.TrimPrefix(contentIdentifier, cidV1Base32PrefixConstant))
		if decodeError == nil && len(decoded) >= cidV1MinimumDecodedLengthConstant && decoded[0] == cidV1VersionConstant {
			return nil
		}
	}

	return failures.Newf(failures.ErrUpstreamFailure, validateIdentifierOperationConstant, malformedIdentifierTemplateConstant, contentIdentifier)
}

// BuildGatewayURL renders the public URL https://{cid}{suffix}.
func BuildGatewayURL(contentIdentifier string, gatewaySuffix string) string {
	return fmt.Sprintf(gatewayURLTemplateConstant, contentIdentifier, gatewaySuffix)
}
