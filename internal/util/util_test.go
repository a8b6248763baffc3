package util

import "testing"

func TestTrimQuotes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"no quotes", "hello", "hello"},
		{"double quoted", `"hello"`, "hello"},
		{"single quotes only", "'hello'", "'hello'"},
		{"quotes in middle", `he"llo`, `he"llo`},
		{"only quotes", `""`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TrimQuotes(tt.input)
			if result != tt.expected {
				t.Errorf("TrimQuotes(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestCleanArg(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"Ragefire ""the"" Wolf"`, `Ragefire "the" Wolf`},
		{` "12" `, "12"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		if got := CleanArg(tt.input); got != tt.expected {
			t.Errorf("CleanArg(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"", nil},
		{"[]", nil},
		{"stun", []string{"stun"}},
		{`["stun","root"]`, []string{"stun", "root"}},
		{"players, creatures,,", []string{"players", "creatures"}},
	}

	for _, tt := range tests {
		got := SplitList(tt.input)
		if len(got) != len(tt.expected) {
			t.Errorf("SplitList(%q) = %v, want %v", tt.input, got, tt.expected)
			continue
		}
		for i := range got {
			if got[i] != tt.expected[i] {
				t.Errorf("SplitList(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.expected[i])
			}
		}
	}
}

func TestParseBool(t *testing.T) {
	for in, want := range map[string]bool{"true": true, `"TRUE"`: true, "1": true, "false": false, "0": false} {
		got, err := ParseBool(in)
		if err != nil {
			t.Errorf("ParseBool(%q) unexpected error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseBool(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseBool("yes"); err == nil {
		t.Error("expected error for yes")
	}
}

func TestSafeFileName(t *testing.T) {
	tests := map[string]string{
		"Arena: Round 1": "Arena__Round_1",
		"a/b\\c":         "a_b_c",
		"   ":            "session",
	}
	for in, want := range tests {
		if got := SafeFileName(in); got != want {
			t.Errorf("SafeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
