package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number is a float that tolerates the loosely typed amounts the backend
// sends: JSON numbers, numeric strings, and strings decorated with "$", "%",
// "x" or thousands separators. Anything unparseable decodes to zero.
type Number float64

// Float returns the value as a float64.
func (n Number) Float() float64 {
	return float64(n)
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode number: %w", err)
	}
	*n = Number(LooseFloat(raw, 0))
	return nil
}

// ParseLooseNumber strips currency, percent, multiple ("x") and thousands
// decorations before parsing. The boolean is false when nothing numeric
// remains or the result is not finite.
func ParseLooseNumber(s string) (float64, bool) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.NewReplacer(",", "", "$", "", "%", "", " ", "").Replace(cleaned)
	cleaned = strings.TrimRight(cleaned, "xX")
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseNumber converts a string the way a strict numeric cast does: the
// trimmed empty string is zero, decorations are not tolerated.
func ParseNumber(s string) (float64, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// LooseFloat coerces a decoded JSON value to a float, returning def when the
// value is missing or cannot be read as a finite number.
func LooseFloat(v any, def float64) float64 {
	switch t := v.(type) {
	case nil:
		return def
	case float64:
		return finiteOr(t, def)
	case float32:
		return finiteOr(float64(t), def)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return def
		}
		return finiteOr(f, def)
	case Number:
		return finiteOr(float64(t), def)
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		f, ok := ParseLooseNumber(t)
		if !ok {
			return def
		}
		return f
	default:
		return def
	}
}

// Finite returns v, or zero when v is NaN or infinite.
func Finite(v float64) float64 {
	return finiteOr(v, 0)
}

func finiteOr(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}
