package validation

import (
	"encoding/base64"
	"strconv"

	validation "github.com/jellydator/validation"
)

// Base64 accepts standard base64 text. Empty strings pass; pair it with
// validation.Required.
var Base64 = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_base64_type", "must be a string")
	}
	if s == "" {
		return nil
	}
	if _, err := base64.StdEncoding.DecodeString(s); err != nil {
		return validation.NewError("validation_base64", "must be valid base64-encoded data")
	}
	return nil
})

// Base64Key accepts standard base64 text that decodes to at least MinBytes
// bytes of key material. Empty strings pass.
type Base64Key struct {
	MinBytes int
}

// Validate implements validation.Rule.
func (k Base64Key) Validate(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_base64_type", "must be a string")
	}
	if s == "" {
		return nil
	}

	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return validation.NewError("validation_base64", "must be valid base64-encoded data")
	}
	if len(decoded) < k.MinBytes {
		return validation.NewError(
			"validation_key_length",
			"must decode to at least "+strconv.Itoa(k.MinBytes)+" bytes",
		)
	}
	return nil
}
