package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// SignHMACHex returns the lowercase hex HMAC-SHA256 of message under secret
func SignHMACHex(message []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(message)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyHMACHex reports whether signature is the hex HMAC-SHA256 of message.
// The comparison does not stop at the first differing byte.
func VerifyHMACHex(message []byte, signature, secret string) bool {
	expectedMAC := SignHMACHex(message, secret)

	return ConstantTimeEqual(expectedMAC, signature)
}

// ConstantTimeEqual compares two strings in time that depends only on their lengths
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
