// Package metric implements the tri-state value semantics used for
// per-set athlete input. Every raw field value parses to exactly one of
// three kinds: Unset (the athlete never touched the field), Null (the
// athlete explicitly skipped it with a dash), or Present (a real
// attempted value, including zero). Downstream code must go through
// Parse so the dash/zero/empty distinction cannot collapse into a
// truthiness check.
package metric

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the three-way partition of a parsed value.
type Kind int

const (
	// Unset means the field was never filled in.
	Unset Kind = iota
	// Null means the athlete intentionally skipped the field (dash).
	Null
	// Present means a real value was entered. Zero is Present.
	Present
)

func (k Kind) String() string {
	switch k {
	case Unset:
		return "unset"
	case Null:
		return "null"
	case Present:
		return "present"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Dash sentinels accepted as an explicit skip. Both the ASCII hyphen
// and the Unicode minus sign appear in real input.
const (
	dashASCII   = "-"
	dashUnicode = "−"
)

// Value is a parsed per-set field value.
type Value struct {
	kind   Kind
	num    float64
	text   string
	isText bool
}

// UnsetValue is the zero Value; its kind is Unset.
var UnsetValue = Value{kind: Unset}

// NullValue is the explicit-skip value.
var NullValue = Value{kind: Null}

// Number returns a Present numeric value.
func Number(v float64) Value {
	return Value{kind: Present, num: v}
}

// Text returns a Present string value (custom string metrics).
func Text(s string) Value {
	return Value{kind: Present, text: s, isText: true}
}

// Kind reports which of the three cases this value is.
func (v Value) Kind() Kind { return v.kind }

// IsPresent reports whether the value is a real attempted value.
func (v Value) IsPresent() bool { return v.kind == Present }

// Num returns the numeric value and whether the value is numeric.
// A Present text value, Null, and Unset all return (0, false).
func (v Value) Num() (float64, bool) {
	if v.kind != Present || v.isText {
		return 0, false
	}
	return v.num, true
}

// Str returns the text value and whether the value is textual.
func (v Value) Str() (string, bool) {
	if v.kind != Present || !v.isText {
		return "", false
	}
	return v.text, true
}

// Wire returns the value's wire/snapshot representation and whether it
// should be emitted at all. Present values travel as themselves, Null
// travels as the dash sentinel, and Unset is omitted — so a
// marshal/Parse round trip reconstructs the same tri-state.
func (v Value) Wire() (any, bool) {
	switch v.kind {
	case Present:
		if v.isText {
			return v.text, true
		}
		return v.num, true
	case Null:
		return dashASCII, true
	default:
		return nil, false
	}
}

// Parse converts a raw field value into its tri-state semantic.
//
// Rules, in order:
//   - nil (absent or JSON null) ⇒ Unset
//   - a string equal to the dash sentinel ⇒ Null
//   - an empty string ⇒ Unset
//   - any number, including 0 ⇒ Present (zero is a real attempt)
//   - any other string ⇒ Present, coerced to a number when it parses
//     as one, passed through as text otherwise
//
// Parse is total: every input falls into exactly one case.
func Parse(raw any) Value {
	switch t := raw.(type) {
	case nil:
		return UnsetValue
	case string:
		return parseText(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case bool:
		if t {
			return Number(1)
		}
		return Number(0)
	case Value:
		return t
	default:
		return Text(fmt.Sprint(t))
	}
}

// ParseString parses wire input where everything arrives as text.
// Numeric-looking strings are coerced to numbers so that "0" and "-"
// keep their distinct meanings.
func ParseString(raw string) Value {
	return parseText(raw)
}

func parseText(s string) Value {
	trimmed := strings.TrimSpace(s)
	switch trimmed {
	case "":
		return UnsetValue
	case dashASCII, dashUnicode:
		return NullValue
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return Number(f)
	}
	return Text(s)
}
