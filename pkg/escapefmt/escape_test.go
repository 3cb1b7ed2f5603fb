package escapefmt

import "testing"

// TestEncodeDecodeRoundTrip verifies that decode(encode(p)) == p for strings
// with no dangling backslash, per spec.md §8, property 3.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"plain.txt",
		"has\\backslash",
		"has\nnewline",
		"both\\and\nmixed\\stuff",
		"line1\nline2",
	}
	for _, s := range cases {
		encoded, _ := Encode(s)
		decoded, err := Decode(encoded)
		if err != nil {
			t.Errorf("Decode(Encode(%q)) failed: %v", s, err)
			continue
		}
		if decoded != s {
			t.Errorf("round trip mismatch: got %q, expected %q", decoded, s)
		}
	}
}

// TestEncodeNoEscapingNeeded verifies that Encode reports needsEscaping=false
// exactly when the input contains neither backslash nor line feed.
func TestEncodeNoEscapingNeeded(t *testing.T) {
	plain := []string{"", "plain.txt", "foo/bar/baz.go"}
	for _, s := range plain {
		encoded, needsEscaping := Encode(s)
		if needsEscaping {
			t.Errorf("Encode(%q) unexpectedly reported needsEscaping", s)
		}
		if encoded != s {
			t.Errorf("Encode(%q) altered a string requiring no escaping: got %q", s, encoded)
		}
	}

	dirty := []string{"a\\b", "a\nb"}
	for _, s := range dirty {
		_, needsEscaping := Encode(s)
		if !needsEscaping {
			t.Errorf("Encode(%q) failed to report needsEscaping", s)
		}
	}
}

// TestDecodeInvalidEscapes verifies that decode("x\\a") fails for any
// a not in {'n', '\\'}, and that a trailing bare backslash fails.
func TestDecodeInvalidEscapes(t *testing.T) {
	invalid := []string{
		"x\\t",
		"x\\ ",
		"x\\",
		"\\",
		"x\\0",
	}
	for _, s := range invalid {
		if _, err := Decode(s); err == nil {
			t.Errorf("Decode(%q) unexpectedly succeeded", s)
		}
	}

	valid := []string{
		"x\\n",
		"x\\\\",
	}
	for _, s := range valid {
		if _, err := Decode(s); err != nil {
			t.Errorf("Decode(%q) unexpectedly failed: %v", s, err)
		}
	}
}
