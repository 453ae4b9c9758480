package mumps

import (
	"math"
	"testing"
)

func TestNumberToStringIntegersHaveNoDecimalPoint(t *testing.T) {
	if got := numberToString(3); got != "3" {
		t.Errorf("got %q, want %q", got, "3")
	}
	if got := numberToString(-42); got != "-42" {
		t.Errorf("got %q, want %q", got, "-42")
	}
}

func TestNumberToStringFractional(t *testing.T) {
	if got := numberToString(2.5); got != "2.5" {
		t.Errorf("got %q, want %q", got, "2.5")
	}
}

func TestNumberToStringNonFiniteRendersAsLiteralWord(t *testing.T) {
	cases := []struct {
		n    float64
		want string
	}{
		{math.NaN(), "NAN"},
		{math.Inf(1), "INF"},
		{math.Inf(-1), "-INF"},
	}
	for _, c := range cases {
		if got := numberToString(c.n); got != c.want {
			t.Errorf("numberToString(%v): got %q, want %q", c.n, got, c.want)
		}
	}
}

func TestToStrCoercesScalars(t *testing.T) {
	if got := toStr(StringValue("abc")); got != "abc" {
		t.Errorf("got %q, want %q", got, "abc")
	}
	if got := toStr(NumberValue(3)); got != "3" {
		t.Errorf("got %q, want %q", got, "3")
	}
	if got := toStr(nil); got != "" {
		t.Errorf("got %q, want empty string", got)
	}
}

func TestToStrOnArrayNodeUsesSelfValue(t *testing.T) {
	withSelf := newArrayNode(StringValue("scalar"))
	if got := toStr(withSelf); got != "scalar" {
		t.Errorf("got %q, want %q", got, "scalar")
	}
	withoutSelf := newArrayNode(nil)
	if got := toStr(withoutSelf); got != "" {
		t.Errorf("got %q, want empty string", got)
	}
}

func TestToNumParsesLongestValidPrefix(t *testing.T) {
	cases := []struct {
		v    Value
		want float64
	}{
		{StringValue("42abc"), 42},
		{StringValue(""), 0},
		{StringValue("   "), 0},
		{StringValue("-5.5xyz"), -5.5},
		{NumberValue(7), 7},
	}
	for _, c := range cases {
		if got := toNum(c.v); got != c.want {
			t.Errorf("toNum(%v): got %v, want %v", c.v, got, c.want)
		}
	}
}

func TestToBoolIsNonzeroNumericCoercion(t *testing.T) {
	if toBool(NumberValue(0)) {
		t.Errorf("0 should coerce to false")
	}
	if !toBool(NumberValue(-3)) {
		t.Errorf("-3 should coerce to true")
	}
	if toBool(StringValue("abc")) {
		t.Errorf("a non-numeric string should coerce to false")
	}
	if !toBool(StringValue("3abc")) {
		t.Errorf("a string with a leading numeric prefix should coerce to true")
	}
}

func TestParseNumberFullRequiresEntireStringConsumed(t *testing.T) {
	cases := []struct {
		s       string
		want    float64
		wantOK  bool
	}{
		{"123", 123, true},
		{"3.14", 3.14, true},
		{"12a", 0, false},
		{"", 0, false},
		{"-7", -7, true},
	}
	for _, c := range cases {
		got, ok := parseNumberFull(c.s)
		if ok != c.wantOK || (ok && got != c.want) {
			t.Errorf("parseNumberFull(%q): got (%v,%v), want (%v,%v)", c.s, got, ok, c.want, c.wantOK)
		}
	}
}

func TestParseNumberPrefixStopsAtFirstInvalidRune(t *testing.T) {
	got, ok := parseNumberPrefix("3.14xyz")
	if !ok || got != 3.14 {
		t.Errorf("got (%v,%v), want (3.14,true)", got, ok)
	}
	if _, ok := parseNumberPrefix("abc"); ok {
		t.Errorf("expected no valid numeric prefix in %q", "abc")
	}
}

func TestIsScalarDistinguishesFromArrayNode(t *testing.T) {
	if !isScalar(StringValue("x")) {
		t.Errorf("a StringValue should be a scalar")
	}
	if !isScalar(NumberValue(1)) {
		t.Errorf("a NumberValue should be a scalar")
	}
	if isScalar(newArrayNode(nil)) {
		t.Errorf("an *ArrayNode should not be a scalar")
	}
}
