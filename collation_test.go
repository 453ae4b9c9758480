package mumps

import "testing"

func TestCollationNumericKeysSortByValue(t *testing.T) {
	if got := mCollationCompare("2", "10"); got >= 0 {
		t.Errorf("\"2\" should sort before \"10\", got %d", got)
	}
	if got := mCollationCompare("10", "2"); got <= 0 {
		t.Errorf("\"10\" should sort after \"2\", got %d", got)
	}
}

func TestCollationNumericKeysSortBeforeNonNumeric(t *testing.T) {
	if got := mCollationCompare("2", "abc"); got >= 0 {
		t.Errorf("a numeric key should sort before a non-numeric one, got %d", got)
	}
	if got := mCollationCompare("abc", "2"); got <= 0 {
		t.Errorf("a non-numeric key should sort after a numeric one, got %d", got)
	}
}

func TestCollationNonNumericKeysSortLexicographically(t *testing.T) {
	if got := mCollationCompare("abc", "abd"); got >= 0 {
		t.Errorf("\"abc\" should sort before \"abd\", got %d", got)
	}
}

func TestCollationOnlyCanonicalFormsCountAsNumeric(t *testing.T) {
	// "02" doesn't round-trip through parse-then-render ("2"), so it
	// collates as an ordinary string rather than the number 2.
	if got := mCollationCompare("02", "2"); got <= 0 {
		t.Errorf("a non-canonical numeric-looking key should sort after the canonical one, got %d", got)
	}
	if got := mCollationCompare("2.0", "2"); got <= 0 {
		t.Errorf("\"2.0\" is not canonical and should sort after \"2\", got %d", got)
	}
}

func TestCollationEmptyStringSortsFirst(t *testing.T) {
	if got := mCollationCompare("", "abc"); got >= 0 {
		t.Errorf("the empty string should sort before any other key, got %d", got)
	}
	if got := mCollationCompare("", "-5"); got >= 0 {
		t.Errorf("the empty string should sort before any other key, got %d", got)
	}
}

func TestOrderedMapKeysAreInCollationOrder(t *testing.T) {
	m := NewOrderedMap()
	m.Put("abc", StringValue("x"))
	m.Put("10", StringValue("x"))
	m.Put("2", StringValue("x"))
	got := m.Keys()
	want := []string{"2", "10", "abc"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
}

func TestOrderedMapNextWalksForwardInCollationOrder(t *testing.T) {
	m := NewOrderedMap()
	m.Put("abc", StringValue("x"))
	m.Put("10", StringValue("x"))
	m.Put("2", StringValue("x"))

	k, ok := m.Next("")
	if !ok || k != "2" {
		t.Fatalf("Next(\"\"): got (%q,%v), want (\"2\",true)", k, ok)
	}
	k, ok = m.Next(k)
	if !ok || k != "10" {
		t.Fatalf("Next(\"2\"): got (%q,%v), want (\"10\",true)", k, ok)
	}
	k, ok = m.Next(k)
	if !ok || k != "abc" {
		t.Fatalf("Next(\"10\"): got (%q,%v), want (\"abc\",true)", k, ok)
	}
	_, ok = m.Next(k)
	if ok {
		t.Errorf("Next(\"abc\") should report no more keys")
	}
}

func TestOrderedMapPrevWalksBackwardInCollationOrder(t *testing.T) {
	m := NewOrderedMap()
	m.Put("abc", StringValue("x"))
	m.Put("10", StringValue("x"))
	m.Put("2", StringValue("x"))

	k, ok := m.Prev("")
	if !ok || k != "abc" {
		t.Fatalf("Prev(\"\"): got (%q,%v), want (\"abc\",true)", k, ok)
	}
	k, ok = m.Prev(k)
	if !ok || k != "10" {
		t.Fatalf("Prev(\"abc\"): got (%q,%v), want (\"10\",true)", k, ok)
	}
	k, ok = m.Prev(k)
	if !ok || k != "2" {
		t.Fatalf("Prev(\"10\"): got (%q,%v), want (\"2\",true)", k, ok)
	}
	_, ok = m.Prev(k)
	if ok {
		t.Errorf("Prev(\"2\") should report no more keys")
	}
}

func TestOrderedMapNextSkipsAnExistingKeyItself(t *testing.T) {
	m := NewOrderedMap()
	m.Put("2", StringValue("x"))
	m.Put("10", StringValue("x"))
	// Next(from) is exclusive of from even when from is itself a key
	// already present in the map (the common $O(arr(k)) loop idiom).
	k, ok := m.Next("2")
	if !ok || k != "10" {
		t.Fatalf("got (%q,%v), want (\"10\",true)", k, ok)
	}
}

func TestOrderedMapGetPutDelete(t *testing.T) {
	m := NewOrderedMap()
	if _, ok := m.Get("x"); ok {
		t.Errorf("Get on an empty map should report not found")
	}
	m.Put("x", NumberValue(42))
	v, ok := m.Get("x")
	if !ok || v.(NumberValue) != 42 {
		t.Fatalf("got (%v,%v), want (42,true)", v, ok)
	}
	if m.Empty() || m.Size() != 1 {
		t.Errorf("got Size=%d Empty=%v, want Size=1 Empty=false", m.Size(), m.Empty())
	}
	m.Delete("x")
	if !m.Empty() {
		t.Errorf("expected the map to be empty after deleting its only key")
	}
	if _, ok := m.Get("x"); ok {
		t.Errorf("Get after Delete should report not found")
	}
}
