package slug

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "diacritics and punctuation", in: "Épée & Bouclier!!", want: "epee-bouclier"},
		{name: "surrounding space and underscore", in: "  Jöhn_Doe ", want: "john-doe"},
		{name: "already a slug", in: "my-link-2", want: "my-link-2"},
		{name: "uppercase ascii", in: "GitHub Profile", want: "github-profile"},
		{name: "runs collapse to one hyphen", in: "a -- b __ c", want: "a-b-c"},
		{name: "leading and trailing symbols", in: "--hello--", want: "hello"},
		{name: "only symbols", in: "!!! ??", want: ""},
		{name: "empty", in: "", want: ""},
		{name: "digits kept", in: "Top 10 Tips", want: "top-10-tips"},
		{name: "non-latin letters become separators", in: "café 日本 bar", want: "cafe-bar"},
		{name: "email local part", in: "john.doe+news", want: "john-doe-news"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestUsernameFromEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "john.doe@gmail.com", want: "john.doe"},
		{in: "a@b@c", want: "a"},
		{in: "no-at-sign", want: "no-at-sign"},
		{in: "@example.com", want: ""},
	}

	for _, tt := range tests {
		if got := UsernameFromEmail(tt.in); got != tt.want {
			t.Errorf("UsernameFromEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// FuzzNormalize checks the output alphabet, the absence of edge or doubled
// hyphens, and idempotence for arbitrary input.
func FuzzNormalize(f *testing.F) {
	for _, seed := range []string{"Épée & Bouclier!!", "  Jöhn_Doe ", "", "---", "ÅÄÖ åäö", "áb"} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, in string) {
		out := Normalize(in)

		for _, r := range out {
			if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
				t.Fatalf("Normalize(%q) = %q contains %q", in, out, r)
			}
		}
		if strings.HasPrefix(out, "-") || strings.HasSuffix(out, "-") {
			t.Fatalf("Normalize(%q) = %q has an edge hyphen", in, out)
		}
		if strings.Contains(out, "--") {
			t.Fatalf("Normalize(%q) = %q has a doubled hyphen", in, out)
		}
		if again := Normalize(out); again != out {
			t.Fatalf("Normalize not idempotent: %q -> %q -> %q", in, out, again)
		}
	})
}
