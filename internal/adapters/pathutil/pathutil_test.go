package pathutil

import "testing"

func TestToRelSlash(t *testing.T) {
	tests := []struct {
		name    string
		root    string
		abs     string
		want    string
		wantErr bool
	}{
		{"nested file", "/tree", "/tree/a/b/img.jpg", "a/b/img.jpg", false},
		{"root itself", "/tree", "/tree", ".", false},
		{"outside root", "/tree", "/other/img.jpg", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToRelSlash(tt.root, tt.abs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ToRelSlash() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ToRelSlash() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHasBackslashSegment(t *testing.T) {
	if !HasBackslashSegment(`a\b.jpg`) {
		t.Error("expected backslash segment to be detected")
	}
	if HasBackslashSegment("a/b.jpg") {
		t.Error("did not expect backslash segment")
	}
}

func TestIsDdbPath(t *testing.T) {
	cases := map[string]bool{
		".ddb":              true,
		".ddb/build/abc":    true,
		"a/.ddb":            false,
		"a/b.jpg":           false,
	}
	for p, want := range cases {
		if got := IsDdbPath(p); got != want {
			t.Errorf("IsDdbPath(%q) = %v, want %v", p, got, want)
		}
	}
}

func TestExt(t *testing.T) {
	tests := map[string]string{
		"img.JPG":   "jpg",
		"scan.tif":  "tif",
		"noext":     "",
		"a.b.geojson": "geojson",
	}
	for name, want := range tests {
		if got := Ext(name); got != want {
			t.Errorf("Ext(%q) = %q, want %q", name, got, want)
		}
	}
}
