package widget

import "testing"

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		path    string
		want    string
	}{
		{"plain text", "hello", "", "hello"},
		{"number", "21.5", "", "21.5"},
		{"object", `{"a":{"b":3}}`, "a.b", "3"},
		{"array index", `{"a":[10,20]}`, "a.1", "20"},
		{"missing segment", `{"a":1}`, "x.y", "null"},
		{"not json with path", "raw", "a.b", "raw"},
		{"nested object", `{"a":{"b":"<x>"}}`, "a", `{"b":"<x>"}`},
		{"bool", "true", "", "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Stringify(Decode(tt.payload, tt.path)); got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{42.0, 42, true},
		{"21.5C", 21.5, true},
		{" -3 ", -3, true},
		{"1e3", 1000, true},
		{"abc", 0, false},
		{true, 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := toFloat(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("toFloat(%v) = %v, %v", tt.in, got, ok)
		}
	}
}

func TestSinceText(t *testing.T) {
	tests := map[int]string{0: "Just now", 5: "5s ago", 125: "2m ago", 7300: "> 2h ago"}
	for secs, want := range tests {
		if got := sinceText(secondsDur(secs)); got != want {
			t.Errorf("%ds: got %q want %q", secs, got, want)
		}
	}
}
