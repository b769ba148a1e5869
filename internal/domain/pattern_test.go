package domain

import "testing"

func TestSanitizeLikePattern(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain path", "a/b/img.jpg", "a//b//img.jpg"},
		{"percent literal", "weird%name", "weird/%name"},
		{"underscore literal", "weird_name", "weird/_name"},
		{"glob star", "a/*.jpg", "a//%.jpg"},
		{"empty", "", "%"},
		{"spec example", "weird%name_*", "weird/%name/_%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeLikePattern(tt.input); got != tt.want {
				t.Errorf("SanitizeLikePattern(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDescendantPattern(t *testing.T) {
	got := DescendantPattern(SanitizeLikePattern("a/b"))
	want := "a//b//%"
	if got != want {
		t.Errorf("DescendantPattern() = %q, want %q", got, want)
	}
}
