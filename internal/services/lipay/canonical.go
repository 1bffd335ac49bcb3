package lipay

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// KeyOrder selects how object members are ordered in the canonical form
type KeyOrder int

const (
	// KeyOrderReceived keeps members in the order the sender wrote them
	KeyOrderReceived KeyOrder = iota
	// KeyOrderSorted sorts members by key at every nesting level
	KeyOrderSorted
)

var ErrUnencodableNumber = errors.New("lipay: number cannot be encoded")

func (o KeyOrder) String() string {
	switch o {
	case KeyOrderReceived:
		return "received"
	case KeyOrderSorted:
		return "sorted"
	default:
		return fmt.Sprintf("KeyOrder(%d)", int(o))
	}
}

// ParseKeyOrder maps a configuration value to a KeyOrder. Empty means received.
func ParseKeyOrder(s string) (KeyOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "received":
		return KeyOrderReceived, nil
	case "sorted":
		return KeyOrderSorted, nil
	default:
		return KeyOrderReceived, fmt.Errorf("unknown key order %q", s)
	}
}

// Canonicalize returns the bytes the sender signs: the payload without its signature,
// encoded the way the sender's json_encode writes it. That means no whitespace,
// escaped slashes, \uXXXX for anything outside ASCII, and shortest round-trip floats.
func Canonicalize(p *Payload, order KeyOrder) ([]byte, error) {
	if p == nil {
		return nil, ErrNilPayload
	}

	members := make([]member, 0, len(p.members))
	for _, m := range p.members {
		if m.key == FieldSignature {
			continue
		}
		members = append(members, m)
	}

	var buf bytes.Buffer
	if err := writeMembers(&buf, members, order); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v gjson.Result, order KeyOrder) error {
	switch v.Type {
	case gjson.Null:
		buf.WriteString("null")
	case gjson.True:
		buf.WriteString("true")
	case gjson.False:
		buf.WriteString("false")
	case gjson.String:
		writeString(buf, v.Str)
	case gjson.Number:
		return writeNumber(buf, v.Raw)
	case gjson.JSON:
		if v.IsArray() {
			return writeArray(buf, v.Array(), order)
		}
		return writeMembers(buf, collectMembers(v, make(map[string]int)), order)
	}
	return nil
}

func writeArray(buf *bytes.Buffer, values []gjson.Result, order KeyOrder) error {
	buf.WriteByte('[')
	for i, e := range values {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeValue(buf, e, order); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

// writeMembers encodes an object. Objects that decode to a PHP list (no members, or keys
// "0".."n-1" in order) are written as JSON arrays.
func writeMembers(buf *bytes.Buffer, members []member, order KeyOrder) error {
	if isList(members) {
		values := make([]gjson.Result, len(members))
		for i, m := range members {
			values[i] = m.value
		}
		return writeArray(buf, values, order)
	}

	if order == KeyOrderSorted {
		sorted := make([]member, len(members))
		copy(sorted, members)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].key < sorted[j].key })
		members = sorted
	}

	buf.WriteByte('{')
	for i, m := range members {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, m.key)
		buf.WriteByte(':')
		if err := writeValue(buf, m.value, order); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func isList(members []member) bool {
	for i, m := range members {
		if m.key != strconv.Itoa(i) {
			return false
		}
	}
	return true
}

const hexDigits = "0123456789abcdef"

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size

		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '/':
			buf.WriteString(`\/`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			switch {
			case r < 0x20:
				writeUnicodeEscape(buf, r)
			case r < utf8.RuneSelf:
				buf.WriteByte(byte(r))
			case r > 0xffff:
				r -= 0x10000
				writeUnicodeEscape(buf, 0xd800+(r>>10))
				writeUnicodeEscape(buf, 0xdc00+(r&0x3ff))
			default:
				writeUnicodeEscape(buf, r)
			}
		}
	}
	buf.WriteByte('"')
}

func writeUnicodeEscape(buf *bytes.Buffer, r rune) {
	buf.WriteString(`\u`)
	buf.WriteByte(hexDigits[(r>>12)&0xf])
	buf.WriteByte(hexDigits[(r>>8)&0xf])
	buf.WriteByte(hexDigits[(r>>4)&0xf])
	buf.WriteByte(hexDigits[r&0xf])
}

// writeNumber re-encodes a JSON number token. Integers that fit in int64 stay integers,
// everything else goes through float64.
func writeNumber(buf *bytes.Buffer, raw string) error {
	if isIntegerToken(raw) {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			buf.WriteString(strconv.FormatInt(n, 10))
			return nil
		}
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return fmt.Errorf("%w: %s", ErrUnencodableNumber, raw)
	}
	buf.WriteString(formatFloat(f))
	return nil
}

func isIntegerToken(raw string) bool {
	digits := strings.TrimPrefix(raw, "-")
	if digits == "" {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}

// formatFloat writes the shortest digits that round-trip, switching to exponent form
// when the decimal point would sit more than 17 places right or 3 places left of them.
func formatFloat(f float64) string {
	if f == 0 {
		if math.Signbit(f) {
			return "-0"
		}
		return "0"
	}

	s := strconv.FormatFloat(f, 'e', -1, 64)
	var sb strings.Builder
	if s[0] == '-' {
		sb.WriteByte('-')
		s = s[1:]
	}

	mantissa, expPart, _ := strings.Cut(s, "e")
	exp, _ := strconv.Atoi(expPart)
	digits := strings.Replace(mantissa, ".", "", 1)
	decpt := exp + 1

	switch {
	case decpt < -3 || decpt > 17:
		sb.WriteByte(digits[0])
		sb.WriteByte('.')
		if len(digits) == 1 {
			sb.WriteByte('0')
		} else {
			sb.WriteString(digits[1:])
		}
		sb.WriteByte('e')
		if exp < 0 {
			sb.WriteByte('-')
			exp = -exp
		} else {
			sb.WriteByte('+')
		}
		sb.WriteString(strconv.Itoa(exp))
	case decpt <= 0:
		sb.WriteString("0.")
		sb.WriteString(strings.Repeat("0", -decpt))
		sb.WriteString(digits)
	default:
		if len(digits) <= decpt {
			sb.WriteString(digits)
			sb.WriteString(strings.Repeat("0", decpt-len(digits)))
		} else {
			sb.WriteString(digits[:decpt])
			sb.WriteByte('.')
			sb.WriteString(digits[decpt:])
		}
	}
	return sb.String()
}
