package links

import (
	"crypto/rand"

	"github.com/go-playground/validator/v10"
)

const (
	// CodeAlphabet is the set of characters used in generated codes
	CodeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// CodeLength is the length of generated codes
	CodeLength = 7
)

var validate = validator.New()

// GenerateCode returns a random code of the given length drawn from CodeAlphabet.
// Each character is one crypto/rand byte reduced modulo 62, so the first
// 8 characters of the alphabet are very slightly more likely than the rest.
func GenerateCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = CodeAlphabet[int(b)%len(CodeAlphabet)]
	}
	return string(buf), nil
}

func newCode() (string, error) {
	return GenerateCode(CodeLength)
}

// ValidTargetURL reports whether s is an absolute http or https URL with a host.
func ValidTargetURL(s string) bool {
	return validate.Var(s, "required,http_url") == nil
}
