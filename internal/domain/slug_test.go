package domain

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"AI Prompt Templates v2", "ai-prompt-templates-v2"},
		{"Widget Kit", "widget-kit"},
		{"  spaced   out  ", "spaced-out"},
		{"under_scored_name", "under-scored-name"},
		{"Símbolos & Café!", "simbolos-cafe"},
		{"--already-slugged--", "already-slugged"},
		{"MiXeD CaSe 123", "mixed-case-123"},
		{"!!!", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	inputs := []string{"AI Prompt Templates v2", "Símbolos & Café!", "a  b_c-d"}
	for _, in := range inputs {
		once := Slugify(in)
		if twice := Slugify(once); twice != once {
			t.Fatalf("Slugify not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}
