// Package lipay authenticates and classifies LiPayKripto payment-status webhooks.
//
// A notification is decoded with its member order intact, validated, checked against an
// HMAC-SHA256 signature computed over its canonical form, and then routed to the
// caller's handlers.
package lipay

import (
	"bytes"
	"errors"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// Status is the transaction outcome reported by the processor
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// Valid reports whether s is one of the recognised outcomes
func (s Status) Valid() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// Payload field names
const (
	FieldSuccess   = "success"
	FieldClientID  = "clientId"
	FieldStatus    = "status"
	FieldTryAmount = "tryAmount"
	FieldPaymentID = "paymentId"
	FieldSignature = "signature"
)

// RequiredFields lists the members every notification must carry, in the sender's order
var RequiredFields = []string{
	FieldSuccess,
	FieldClientID,
	FieldStatus,
	FieldTryAmount,
	FieldPaymentID,
	FieldSignature,
}

var (
	ErrEmptyPayload  = errors.New("lipay: empty payload")
	ErrMalformedJSON = errors.New("lipay: malformed JSON payload")
	ErrNotObject     = errors.New("lipay: payload is not a JSON object")
	ErrNilPayload    = errors.New("lipay: nil payload")
)

type member struct {
	key   string
	value gjson.Result
}

// Payload is one decoded webhook notification. Members keep the order in which the
// sender wrote them, since that order is part of the signed content.
type Payload struct {
	body    []byte
	members []member
	index   map[string]int
}

// Decode parses a raw request body. A repeated key keeps its first position and
// takes its last value.
func Decode(raw []byte) (*Payload, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrEmptyPayload
	}
	if !utf8.Valid(raw) || !gjson.ValidBytes(raw) || hasLoneSurrogate(raw) {
		return nil, ErrMalformedJSON
	}

	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, ErrNotObject
	}

	p := &Payload{
		body:  append([]byte(nil), raw...),
		index: make(map[string]int),
	}
	p.members = collectMembers(root, p.index)
	return p, nil
}

// hasLoneSurrogate reports whether a \uXXXX escape names half of a UTF-16 surrogate
// pair without its other half. raw must already be valid JSON, so every backslash
// starts an escape inside a string.
func hasLoneSurrogate(raw []byte) bool {
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' {
			continue
		}
		if raw[i+1] != 'u' {
			i++
			continue
		}

		r := hexRune(raw[i+2 : i+6])
		switch {
		case utf16.IsSurrogate(r) && r < 0xdc00:
			if i+12 > len(raw) || raw[i+6] != '\\' || raw[i+7] != 'u' {
				return true
			}
			if low := hexRune(raw[i+8 : i+12]); low < 0xdc00 || low > 0xdfff {
				return true
			}
			i += 11
		case utf16.IsSurrogate(r):
			return true
		default:
			i += 5
		}
	}
	return false
}

func hexRune(b []byte) rune {
	var r rune
	for _, c := range b {
		r <<= 4
		switch {
		case c >= '0' && c <= '9':
			r |= rune(c - '0')
		case c >= 'a' && c <= 'f':
			r |= rune(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			r |= rune(c - 'A' + 10)
		}
	}
	return r
}

func collectMembers(obj gjson.Result, index map[string]int) []member {
	var members []member
	obj.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if i, ok := index[k]; ok {
			members[i].value = value
			return true
		}
		index[k] = len(members)
		members = append(members, member{key: k, value: value})
		return true
	})
	return members
}

func (p *Payload) lookup(key string) (gjson.Result, bool) {
	if p == nil {
		return gjson.Result{}, false
	}
	i, ok := p.index[key]
	if !ok {
		return gjson.Result{}, false
	}
	return p.members[i].value, true
}

// Has reports whether key is present with a non-null value
func (p *Payload) Has(key string) bool {
	v, ok := p.lookup(key)
	return ok && v.Type != gjson.Null
}

// Raw returns the member's JSON text as received
func (p *Payload) Raw(key string) (string, bool) {
	v, ok := p.lookup(key)
	if !ok {
		return "", false
	}
	return v.Raw, true
}

// Keys returns every member name in document order
func (p *Payload) Keys() []string {
	if p == nil {
		return nil
	}
	keys := make([]string, len(p.members))
	for i, m := range p.members {
		keys[i] = m.key
	}
	return keys
}

// Extra returns the raw JSON of members that are not part of the documented schema
func (p *Payload) Extra() map[string]string {
	extra := make(map[string]string)
	if p == nil {
		return extra
	}
	for _, m := range p.members {
		if !isRequiredField(m.key) {
			extra[m.key] = m.value.Raw
		}
	}
	return extra
}

// JSON returns a copy of the body the payload was decoded from
func (p *Payload) JSON() []byte {
	if p == nil {
		return nil
	}
	return append([]byte(nil), p.body...)
}

func (p *Payload) Success() bool {
	v, _ := p.lookup(FieldSuccess)
	return v.Bool()
}

func (p *Payload) ClientID() string {
	v, _ := p.lookup(FieldClientID)
	return scalarString(v)
}

// Status returns the reported outcome, or "" when status is not a JSON string
func (p *Payload) Status() Status {
	v, _ := p.lookup(FieldStatus)
	if v.Type != gjson.String {
		return ""
	}
	return Status(v.Str)
}

// TryAmount returns the attempted amount. Numbers are returned exactly as written.
func (p *Payload) TryAmount() string {
	v, _ := p.lookup(FieldTryAmount)
	return scalarString(v)
}

func (p *Payload) PaymentID() string {
	v, _ := p.lookup(FieldPaymentID)
	return scalarString(v)
}

// Signature returns the sender's hex digest, or "" when it is missing or not a string
func (p *Payload) Signature() string {
	v, _ := p.lookup(FieldSignature)
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}

func scalarString(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		return v.Raw
	default:
		return ""
	}
}

func isRequiredField(key string) bool {
	for _, f := range RequiredFields {
		if f == key {
			return true
		}
	}
	return false
}
