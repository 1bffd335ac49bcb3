package lipay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/sjson"
)

func TestValidate(t *testing.T) {
	p, err := Decode([]byte(confirmedBody))
	require.NoError(t, err)
	assert.True(t, Validate(p))

	failed, err := Decode([]byte(`{"success":false,"clientId":"","status":"failed","tryAmount":0,"paymentId":"","signature":""}`))
	require.NoError(t, err)
	assert.True(t, Validate(failed), "empty and falsy values still count as present")

	assert.False(t, Validate(nil))
}

func TestValidateMissingField(t *testing.T) {
	for _, field := range RequiredFields {
		t.Run(field, func(t *testing.T) {
			body, err := sjson.Delete(confirmedBody, field)
			require.NoError(t, err)

			p, err := Decode([]byte(body))
			require.NoError(t, err)
			assert.False(t, Validate(p))
		})
	}
}

func TestValidateNullField(t *testing.T) {
	for _, field := range RequiredFields {
		t.Run(field, func(t *testing.T) {
			body, err := sjson.SetRaw(confirmedBody, field, "null")
			require.NoError(t, err)

			p, err := Decode([]byte(body))
			require.NoError(t, err)
			assert.False(t, Validate(p))
		})
	}
}

func TestValidateStatus(t *testing.T) {
	tests := []struct {
		status string
		valid  bool
	}{
		{`"confirmed"`, true},
		{`"failed"`, true},
		{`"pending"`, false},
		{`"Confirmed"`, false},
		{`" failed"`, false},
		{`""`, false},
		{`true`, false},
		{`1`, false},
		{`["confirmed"]`, false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			body, err := sjson.SetRaw(confirmedBody, FieldStatus, tt.status)
			require.NoError(t, err)

			p, err := Decode([]byte(body))
			require.NoError(t, err)
			assert.Equal(t, tt.valid, Validate(p))
		})
	}
}
