package metric

import "testing"

// TestParsePartition verifies that Parse is total and that every input
// lands in exactly one of the three kinds. The zero/dash/empty
// asymmetry is the engine's core contract: 0 is a real attempted value,
// "-" is an explicit skip, and "" is untouched.
func TestParsePartition(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want Kind
	}{
		{"nil is unset", nil, Unset},
		{"empty string is unset", "", Unset},
		{"whitespace is unset", "  ", Unset},
		{"ascii dash is null", "-", Null},
		{"unicode minus is null", "−", Null},
		{"zero float is present", float64(0), Present},
		{"zero int is present", 0, Present},
		{"zero string is present", "0", Present},
		{"positive number", 135.5, Present},
		{"numeric string", "185", Present},
		{"text passes through", "felt heavy", Present},
		{"negative number is present", -2.5, Present},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if got.Kind() != tt.want {
				t.Errorf("Parse(%v).Kind() = %v, want %v", tt.raw, got.Kind(), tt.want)
			}
		})
	}
}

// TestParseZeroIsNotUnset pins the single most important edge case:
// parse(0) = Present(0), distinct from Unset.
func TestParseZeroIsNotUnset(t *testing.T) {
	v := Parse(float64(0))
	if v.Kind() != Present {
		t.Fatalf("Parse(0).Kind() = %v, want Present", v.Kind())
	}
	n, ok := v.Num()
	if !ok || n != 0 {
		t.Errorf("Parse(0).Num() = %v, %v, want 0, true", n, ok)
	}
}

// TestParseDashIsNotUnset pins the other half of the asymmetry:
// parse("-") = Null, distinct from Unset.
func TestParseDashIsNotUnset(t *testing.T) {
	if v := Parse("-"); v.Kind() != Null {
		t.Errorf("Parse(\"-\").Kind() = %v, want Null", v.Kind())
	}
	if v := Parse(""); v.Kind() != Unset {
		t.Errorf("Parse(\"\").Kind() = %v, want Unset", v.Kind())
	}
}

// TestParseStringCoercion verifies that numeric-looking wire input is
// coerced to a number while non-numeric text passes through.
func TestParseStringCoercion(t *testing.T) {
	v := ParseString("225.5")
	if n, ok := v.Num(); !ok || n != 225.5 {
		t.Errorf("ParseString(\"225.5\").Num() = %v, %v", n, ok)
	}

	v = ParseString("band red")
	if s, ok := v.Str(); !ok || s != "band red" {
		t.Errorf("ParseString(\"band red\").Str() = %q, %v", s, ok)
	}
}

// TestWireRoundTrip verifies that a value survives the snapshot
// representation: Present as itself, Null as the dash, Unset omitted.
func TestWireRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    Value
	}{
		{"number", Number(135)},
		{"zero", Number(0)},
		{"text", Text("slow tempo")},
		{"null", NullValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, ok := tt.v.Wire()
			if !ok {
				t.Fatal("Wire() omitted a non-unset value")
			}
			if got := Parse(raw); got != tt.v {
				t.Errorf("Parse(Wire()) = %#v, want %#v", got, tt.v)
			}
		})
	}

	if _, ok := UnsetValue.Wire(); ok {
		t.Error("Wire() emitted an unset value")
	}
}

// TestNumRejectsNonNumeric verifies Num returns false for text, null,
// and unset values so numeric aggregation cannot pick them up.
func TestNumRejectsNonNumeric(t *testing.T) {
	for _, v := range []Value{Text("x"), NullValue, UnsetValue} {
		if _, ok := v.Num(); ok {
			t.Errorf("Num() ok for %v value", v.Kind())
		}
	}
}
