package lipay

import (
	"fmt"

	"github.com/lipaykripto/webhook/internal/utils"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Verifier checks webhook signatures against a single shared secret. The secret is
// never modified, so one Verifier can serve concurrent requests.
type Verifier struct {
	secretKey string
	keyOrder  KeyOrder
}

// Option configures a Verifier
type Option func(*Verifier)

// WithKeyOrder sets the member order used to build the signed content
func WithKeyOrder(order KeyOrder) Option {
	return func(v *Verifier) {
		v.keyOrder = order
	}
}

// NewVerifier creates a verifier for the given secret key
func NewVerifier(secretKey string, opts ...Option) *Verifier {
	v := &Verifier{
		secretKey: secretKey,
		keyOrder:  KeyOrderReceived,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// KeyOrder returns the member order the verifier signs with
func (v *Verifier) KeyOrder() KeyOrder {
	return v.keyOrder
}

// Signature computes the hex signature the sender should have attached to p
func (v *Verifier) Signature(p *Payload) (string, error) {
	canonical, err := Canonicalize(p, v.keyOrder)
	if err != nil {
		return "", err
	}
	return utils.SignHMACHex(canonical, v.secretKey), nil
}

// Verify reports whether p carries a valid signature. A missing signature never matches.
func (v *Verifier) Verify(p *Payload) bool {
	if p == nil {
		return false
	}

	received := p.Signature()

	canonical, err := Canonicalize(p, v.keyOrder)
	if err != nil {
		return false
	}

	return utils.VerifyHMACHex(canonical, received, v.secretKey)
}

// Sign sets the "signature" member of a raw notification, the way the processor does
// before delivering it. An existing signature is replaced in place; otherwise the
// member is appended. A body carrying several signature members has them all removed
// and one appended.
func (v *Verifier) Sign(raw []byte) ([]byte, error) {
	p, err := Decode(raw)
	if err != nil {
		return nil, err
	}

	sig, err := v.Signature(p)
	if err != nil {
		return nil, err
	}

	signed := raw
	if n := countMembers(raw, FieldSignature); n > 1 {
		for i := 0; i < n; i++ {
			signed, err = sjson.DeleteBytes(signed, FieldSignature)
			if err != nil {
				return nil, fmt.Errorf("failed to remove signature: %w", err)
			}
		}
	}

	signed, err = sjson.SetBytes(signed, FieldSignature, sig)
	if err != nil {
		return nil, fmt.Errorf("failed to set signature: %w", err)
	}
	return signed, nil
}

func countMembers(raw []byte, key string) int {
	n := 0
	gjson.ParseBytes(raw).ForEach(func(k, _ gjson.Result) bool {
		if k.String() == key {
			n++
		}
		return true
	})
	return n
}
