package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

const signaturePrefix = "sha256="

var (
	errMissingSignature = errors.New("missing payload signature")
	errInvalidSignature = errors.New("payload signature mismatch")
)

// Sign returns the X-Hub-Signature-256 header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks header against the HMAC-SHA256 of body keyed by secret.
func VerifySignature(secret string, body []byte, header string) error {
	if header == "" {
		return errMissingSignature
	}
	digest, ok := strings.CutPrefix(header, signaturePrefix)
	if !ok {
		return errInvalidSignature
	}
	got, err := hex.DecodeString(digest)
	if err != nil {
		return errInvalidSignature
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return errInvalidSignature
	}
	return nil
}
