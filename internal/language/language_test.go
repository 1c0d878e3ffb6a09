package language

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"en", "en"},
		{"ENG", "en"},
		{"english", "en"},
		{"fre", "fr"},
		{"fra", "fr"},
		{"pt-BR", "pt"},
		{"zh-Hans", "zh"},
		{"", ""},
		{"xx-klingon", ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("eng"); got != "English" {
		t.Errorf("DisplayName(eng) = %q", got)
	}
	if got := DisplayName(""); got != "Unknown" {
		t.Errorf("DisplayName(\"\") = %q", got)
	}
	if got := DisplayName("cymraeg"); got != "Cymraeg" {
		t.Errorf("DisplayName(cymraeg) = %q", got)
	}
}

func TestExtractFromTags(t *testing.T) {
	got := ExtractFromTags(map[string]string{"LANGUAGE": "spa"})
	if got != "es" {
		t.Errorf("ExtractFromTags = %q, want es", got)
	}
	if got := ExtractFromTags(nil); got != "" {
		t.Errorf("ExtractFromTags(nil) = %q", got)
	}
	// Some muxers pad fixed-width tag values with NUL bytes.
	if got := ExtractFromTags(map[string]string{"language": "eng\x00\x00"}); got != "en" {
		t.Errorf("ExtractFromTags(padded) = %q, want en", got)
	}
}
