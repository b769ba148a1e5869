package sqlite

import "testing"

func TestEscapeLiteral(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain path", "a/b/img.jpg", "a//b//img.jpg"},
		{"percent literal", "weird%name", "weird/%name"},
		{"underscore literal", "weird_name", "weird/_name"},
		{"no metacharacters", "plain", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeLiteral(tt.input); got != tt.want {
				t.Errorf("EscapeLiteral(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
