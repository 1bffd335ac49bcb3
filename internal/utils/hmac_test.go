package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignHMACHex(t *testing.T) {
	// RFC 4231 test case 2
	sig := SignHMACHex([]byte("what do ya want for nothing?"), "Jefe")
	assert.Equal(t, "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843", sig)
}

func TestVerifyHMACHex(t *testing.T) {
	message := []byte(`{"status":"confirmed"}`)
	sig := SignHMACHex(message, "secret")

	assert.True(t, VerifyHMACHex(message, sig, "secret"))
	assert.False(t, VerifyHMACHex(message, sig, "other-secret"))
	assert.False(t, VerifyHMACHex([]byte(`{"status":"failed"}`), sig, "secret"))
	assert.False(t, VerifyHMACHex(message, sig[:len(sig)-1], "secret"), "truncated signature")
	assert.False(t, VerifyHMACHex(message, "", "secret"))
}

func TestConstantTimeEqual(t *testing.T) {
	assert.True(t, ConstantTimeEqual("abc", "abc"))
	assert.True(t, ConstantTimeEqual("", ""))
	assert.False(t, ConstantTimeEqual("abc", "abd"))
	assert.False(t, ConstantTimeEqual("abc", "abcd"))
	assert.False(t, ConstantTimeEqual("ABC", "abc"))
}
