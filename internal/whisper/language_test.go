package whisper

import "testing"

func TestNormalizeLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code string
		want string
	}{
		{"auto passes through", "auto", "auto"},
		{"empty defaults to auto", "", "auto"},
		{"whitespace defaults to auto", "   ", "auto"},
		{"known code", "en", "en"},
		{"known code uppercased", "DE", "de"},
		{"known code padded", "  pl  ", "pl"},
		{"unknown code degrades to auto", "xx", "auto"},
		{"full language name degrades to auto", "english", "auto"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeLanguage(tc.code); got != tc.want {
				t.Fatalf("NormalizeLanguage(%q) = %q, want %q", tc.code, got, tc.want)
			}
		})
	}
}

func TestKnownLanguage(t *testing.T) {
	t.Parallel()

	if !KnownLanguage("en") {
		t.Errorf("KnownLanguage(en) = false, want true")
	}
	if !KnownLanguage(" JA ") {
		t.Errorf("KnownLanguage(' JA ') = false, want true")
	}
	if KnownLanguage("xx") {
		t.Errorf("KnownLanguage(xx) = true, want false")
	}
	if KnownLanguage("auto") {
		t.Errorf("KnownLanguage(auto) = true, want false")
	}
}
