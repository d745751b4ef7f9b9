package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"os"
	"strings"
)

var secretKey = loadSecret()

func loadSecret() []byte {
	if s := os.Getenv("PARLEY_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("parley-dev-secret-change-me")
}

// Sign produces a tamper-evident cookie value in the form "value|signature".
func Sign(value string) string {
	mac := hmac.New(sha256.New, secretKey)
	mac.Write([]byte(value))
	return base64.URLEncoding.EncodeToString([]byte(value)) + "|" + base64.URLEncoding.EncodeToString(mac.Sum(nil))
}

// Verify checks the signature and returns the original value.
func Verify(signedValue string) (string, error) {
	encoded, sig, ok := strings.Cut(signedValue, "|")
	if !ok {
		return "", errors.New("invalid cookie format")
	}

	valueBytes, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", errors.New("invalid value encoding")
	}
	signature, err := base64.URLEncoding.DecodeString(sig)
	if err != nil {
		return "", errors.New("invalid signature encoding")
	}

	mac := hmac.New(sha256.New, secretKey)
	mac.Write(valueBytes)
	if !hmac.Equal(signature, mac.Sum(nil)) {
		return "", errors.New("invalid signature")
	}
	return string(valueBytes), nil
}
