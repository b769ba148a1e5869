package sqlite

import "testing"

func TestParsePointWKT(t *testing.T) {
	tests := []struct {
		name    string
		wkt     string
		wantLon float64
		wantLat float64
		wantAlt float64
		wantOK  bool
	}{
		{"2D", "POINT(12.345600 45.678900)", 12.3456, 45.6789, 0, true},
		{"3D", "POINT Z(12.345600 45.678900 100.500000)", 12.3456, 45.6789, 100.5, true},
		{"garbage", "not a point", 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := parsePointWKT(tt.wkt)
			if ok != tt.wantOK {
				t.Fatalf("parsePointWKT() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if p.Lon != tt.wantLon || p.Lat != tt.wantLat {
				t.Errorf("parsePointWKT() = %+v, want lon=%v lat=%v", p, tt.wantLon, tt.wantLat)
			}
			if tt.wantAlt != 0 && (!p.HasAlt || p.Alt != tt.wantAlt) {
				t.Errorf("parsePointWKT() alt = %v (hasAlt=%v), want %v", p.Alt, p.HasAlt, tt.wantAlt)
			}
		})
	}
}

func TestParsePolygonWKT(t *testing.T) {
	wkt := "POLYGON((0.000000 0.000000, 1.000000 0.000000, 1.000000 1.000000, 0.000000 1.000000, 0.000000 0.000000))"
	poly, ok := parsePolygonWKT(wkt)
	if !ok {
		t.Fatal("parsePolygonWKT() = false, want true")
	}
	if len(poly.Ring) != 5 {
		t.Fatalf("len(Ring) = %d, want 5", len(poly.Ring))
	}
	if poly.Ring[0] != poly.Ring[4] {
		t.Error("ring is not closed")
	}
}

func TestParsePolygonWKTInvalid(t *testing.T) {
	if _, ok := parsePolygonWKT("POINT(1 2)"); ok {
		t.Error("expected parsePolygonWKT to reject a POINT string")
	}
}
