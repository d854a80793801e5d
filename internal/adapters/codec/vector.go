package codec

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DecodeVector parses a bracketed list of numbers: a JSON array or a list or
// tuple literal such as "(0.1, -0.2,)". Non-finite values are rejected.
func DecodeVector(payload []byte) ([]float64, error) {
	s := strings.TrimSpace(string(payload))
	if len(s) < 2 {
		return nil, fmt.Errorf("%w: too short", ErrMalformedVector)
	}
	open, closing := s[0], s[len(s)-1]
	if !(open == '[' && closing == ']') && !(open == '(' && closing == ')') {
		return nil, fmt.Errorf("%w: expected [..] or (..)", ErrMalformedVector)
	}

	body := strings.TrimSpace(s[1 : len(s)-1])
	body = strings.TrimSuffix(body, ",")
	if body == "" {
		return nil, fmt.Errorf("%w: empty vector", ErrMalformedVector)
	}

	parts := strings.Split(body, ",")
	out := make([]float64, 0, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %w", ErrMalformedVector, i, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: element %d is not finite", ErrMalformedVector, i)
		}
		out = append(out, v)
	}
	return out, nil
}

// EncodeVector renders a vector as a JSON array.
func EncodeVector(v []float64) []byte {
	b := make([]byte, 0, len(v)*20+2)
	b = append(b, '[')
	for i, f := range v {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = strconv.AppendFloat(b, f, 'g', -1, 64)
	}
	return append(b, ']')
}

const maxLabelLen = 256

// DecodeLabel validates an identity label: UTF-8 text without control
// characters. Surrounding space is trimmed; an empty label clears the slot.
func DecodeLabel(payload []byte) (string, error) {
	if !utf8.Valid(payload) {
		return "", fmt.Errorf("%w: not utf-8", ErrMalformedLabel)
	}
	s := strings.TrimSpace(string(payload))
	if len(s) > maxLabelLen {
		return "", fmt.Errorf("%w: longer than %d bytes", ErrMalformedLabel, maxLabelLen)
	}
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return "", fmt.Errorf("%w: control character", ErrMalformedLabel)
		}
	}
	return s, nil
}
