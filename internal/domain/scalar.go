package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Scalar is a JSON value that may arrive as either a string or a number,
// such as a product ID or a size label. It remembers which form it had so
// re-encoding reproduces the input.
type Scalar struct {
	text    string
	numeric bool
}

// Text returns a string-form scalar.
func Text(s string) Scalar {
	return Scalar{text: s}
}

// Number returns a numeric scalar.
func Number(f float64) Scalar {
	return Scalar{text: strconv.FormatFloat(f, 'f', -1, 64), numeric: true}
}

// String returns the scalar's textual form.
func (s Scalar) String() string {
	return s.text
}

// IsNumber reports whether the scalar was encoded as a JSON number.
func (s Scalar) IsNumber() bool {
	return s.numeric
}

// IsZero reports whether the scalar is empty.
func (s Scalar) IsZero() bool {
	return s.text == "" && !s.numeric
}

// MarshalJSON implements json.Marshaler.
func (s Scalar) MarshalJSON() ([]byte, error) {
	if s.numeric {
		return []byte(s.text), nil
	}
	return json.Marshal(s.text)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = Scalar{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Scalar{text: str}
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("scalar must be a string or number: %w", err)
		}
		*s = Scalar{text: n.String(), numeric: true}
		return nil
	}
}
