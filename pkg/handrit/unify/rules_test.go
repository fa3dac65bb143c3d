package unify

import "testing"

func TestStrings(t *testing.T) {
	r := DefaultRules()
	tests := []struct {
		a, b     string
		want     string
		conflict bool
	}{
		{"Denmark", "Danmark", "Denmark", false},
		{"Danmörk", "Danmark", "Denmark", false},
		{"origin unknown", "Iceland", "Iceland", false},
		{"Iceland", "Origin unknown", "Iceland", false},
		{"N/A", "210 x 165 mm", "210 x 165 mm", false},
		{"Scribe(s) unknown", "Jón Ólafsson", "Jón Ólafsson", false},
		{"Reykjavik", "Reykjavik", "Reykjavik", false},
		{"Copenhagen", "KÃ¸benhavn", "Copenhagen", false},
		{"Njáls saga", "Brennu-Njáls saga", "Brennu-Njáls saga", false},
		{"Sturlunga", "sturlunga saga", "sturlunga saga", false},
		{"", "Paper", "Paper", false},
		{"A", "B", "A | B", true},
		{"Iceland", "Norway", "Iceland | Norway", true},
	}
	for _, tt := range tests {
		got, conflict := r.Strings(tt.a, tt.b)
		if got != tt.want || conflict != tt.conflict {
			t.Errorf("Strings(%q, %q) = (%q, %v), want (%q, %v)", tt.a, tt.b, got, conflict, tt.want, tt.conflict)
		}
	}
}

func TestCombineStringsIdempotent(t *testing.T) {
	for _, s := range []string{"", "Iceland", "A | B", "origin unknown"} {
		if got := CombineStrings(s, s); got != s {
			t.Errorf("CombineStrings(%q, %q) = %q", s, s, got)
		}
	}
}

func TestInts(t *testing.T) {
	tests := []struct {
		a, b     int
		want     int
		conflict bool
	}{
		{0, 1200, 1200, false},
		{1200, 0, 1200, false},
		{1200, 1200, 1200, false},
		{1200, 1300, 1250, true},
		{1200, 1201, 1200, true},
		{0, 0, 0, false},
	}
	for _, tt := range tests {
		got, conflict := Ints(tt.a, tt.b)
		if got != tt.want || conflict != tt.conflict {
			t.Errorf("Ints(%d, %d) = (%d, %v), want (%d, %v)", tt.a, tt.b, got, conflict, tt.want, tt.conflict)
		}
	}
	if CombineInts(1200, 1300) != 1250 {
		t.Error("CombineInts should average disagreeing values")
	}
}

func TestFloorDiv(t *testing.T) {
	if floorDiv(-3, 2) != -2 || floorDiv(3, 2) != 1 || floorDiv(4, 2) != 2 {
		t.Error("floorDiv should round toward negative infinity")
	}
}

func TestCustomRules(t *testing.T) {
	r := DefaultRules()
	r.AddAliases("Greenland", "Grønland")
	r.AddUninformative("unknown")

	if got, c := r.Strings("Grønland", "Greenland"); got != "Greenland" || c {
		t.Errorf("Expected canonical Greenland, got %q (%v)", got, c)
	}
	if got, _ := r.Strings("Unknown", "Hólar"); got != "Hólar" {
		t.Errorf("Expected Hólar, got %q", got)
	}
}
