package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Cents хранит денежную сумму в копейках. В JSON удалённого API суммы приходят
// десятичной строкой ("150.00") или числом, отдаются строкой.
type Cents int64

// ParseCents разбирает десятичную запись суммы с не более чем двумя знаками после точки.
func ParseCents(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("amount %q: no digits", s)
	}
	if !digits(whole) || !digits(frac) {
		return 0, fmt.Errorf("amount %q: invalid character", s)
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount %q: too many decimal places", s)
	}
	frac += strings.Repeat("0", 2-len(frac))
	if whole == "" {
		whole = "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}
	if w > (math.MaxInt64-f)/100 {
		return 0, fmt.Errorf("amount %q: %w", s, strconv.ErrRange)
	}

	v := Cents(w*100 + f)
	if neg {
		v = -v
	}
	return v, nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String возвращает сумму в виде "123.45".
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON реализует json.Marshaler.
func (c Cents) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON реализует json.Unmarshaler.
func (c *Cents) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*c = 0
		return nil
	}

	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}

	v, err := ParseCents(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}
