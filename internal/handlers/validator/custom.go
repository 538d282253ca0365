package validator

import (
	"encoding/base64"
	"strings"

	"github.com/go-playground/validator/v10"
)

// imageDataValidator accepts a base64 payload, with or without a data URI
// prefix.
func imageDataValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok || val == "" {
		return false
	}

	if strings.HasPrefix(val, "data:") {
		_, payload, found := strings.Cut(val, ",")
		if !found {
			return false
		}
		val = payload
	}

	_, err := base64.StdEncoding.DecodeString(val)
	return err == nil
}
