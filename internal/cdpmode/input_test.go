package cdpmode

import "testing"

func TestNormalizeKeyName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Enter", "enter"},
		{"ENTER", "enter"},
		{"Arrow Down", "arrowdown"},
		{"arrow_down", "arrowdown"},
		{"Page-Up", "pageup"},
	}
	for _, tt := range tests {
		if got := normalizeKeyName(tt.in); got != tt.want {
			t.Errorf("normalizeKeyName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNamedKeysCoverCommonKeys(t *testing.T) {
	for _, name := range []string{"enter", "tab", "escape", "backspace", "arrowdown", "space"} {
		entry, ok := namedKeys[name]
		if !ok {
			t.Errorf("missing key %q", name)
			continue
		}
		if entry.keyCode == 0 {
			t.Errorf("key %q has zero keyCode", name)
		}
	}
}
