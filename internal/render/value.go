package render

import (
	"math"
	"regexp"
	"strconv"
)

// Customization value bounds. Entries outside these limits are dropped during
// sanitization rather than failing the whole request.
const (
	MaxStringValueLen   = 1000
	MaxNumberMagnitude  = 1e9
	MinTemplateIDLength = 8
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Kind discriminates customization value variants.
type Kind int

const (
	KindString Kind = iota
	KindNumber
)

// Value is a tagged customization value: either a string (text substitution,
// image URLs and data URIs) or a bounded number.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
}

// StringValue wraps a string customization value.
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// NumberValue wraps a numeric customization value.
func NumberValue(f float64) Value {
	return Value{Kind: KindNumber, Num: f}
}

// String renders the value the way it is substituted into element content.
func (v Value) String() string {
	if v.Kind == KindNumber {
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
	return v.Str
}

// SanitizeCustomizations filters a caller-supplied customization map down to
// entries the resolver is allowed to see. Keys must be alphanumeric,
// underscore or hyphen; string values are capped at MaxStringValueLen;
// numbers are capped at MaxNumberMagnitude. Offending entries are silently
// dropped (lenient-input policy), never rejected wholesale.
func SanitizeCustomizations(raw map[string]any) map[string]Value {
	out := make(map[string]Value, len(raw))

	for key, val := range raw {
		if key == "" || !keyPattern.MatchString(key) {
			continue
		}

		switch v := val.(type) {
		case string:
			if len(v) > MaxStringValueLen {
				continue
			}
			out[key] = StringValue(v)
		case float64:
			if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > MaxNumberMagnitude {
				continue
			}
			out[key] = NumberValue(v)
		case int:
			if math.Abs(float64(v)) > MaxNumberMagnitude {
				continue
			}
			out[key] = NumberValue(float64(v))
		case int64:
			if math.Abs(float64(v)) > MaxNumberMagnitude {
				continue
			}
			out[key] = NumberValue(float64(v))
		}
		// Other JSON types (objects, arrays, booleans, null) are dropped.
	}

	return out
}

// ValueMap converts sanitized values back into a plain map for persistence on
// the generated invite record.
func ValueMap(cust map[string]Value) map[string]any {
	out := make(map[string]any, len(cust))
	for k, v := range cust {
		if v.Kind == KindNumber {
			out[k] = v.Num
		} else {
			out[k] = v.Str
		}
	}
	return out
}
