package facematch

import "testing"

func TestRemoveDiacritics(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Honza", "Honza"},
		{"Jiří", "Jiri"},
		{"café", "cafe"},
		{"naïve", "naive"},
		{"hello", "hello"},
		{"Žluťoučký kůň", "Zlutoucky kun"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := RemoveDiacritics(tt.input)
			if result != tt.expected {
				t.Errorf("RemoveDiacritics(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFilenameToken(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Alice", "Alice"},
		{"21", "21"},
		{"  Jiří Novák ", "Jiri Novak"},
		{"Alice Smith", "Alice Smith"},
		{"Mary_Jane", "Mary-Jane"},
		{"a/b\\c", "a-b-c"},
		{"J. R. R.", "J R R"},
		{"x \t  y", "x y"},
		{"a__b", "a-b"},
		{"_Bob_", "Bob"},
		{" . ", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := FilenameToken(tt.input)
			if result != tt.expected {
				t.Errorf("FilenameToken(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
