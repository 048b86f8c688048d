package domain

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"empty maps to sentinel", "", UnknownContact},
		{"sentinel is a fixed point", UnknownContact, UnknownContact},
		{"already normalized", "+5491133788190", "+5491133788190"},
		{"jid suffix stripped", "5491133788190@s.whatsapp.net", "+5491133788190"},
		{"jid with only suffix", "@s.whatsapp.net", UnknownContact},
		{"international 00 prefix", "00495511223344", "+495511223344"},
		{"trunk 0 prefix", "01133788190", "+1133788190"},
		{"bare country code", "5491133788190", "+5491133788190"},
		{"us number", "14155550123", "+14155550123"},
		{"normalized jid", "+5491133788190@g.us", "+5491133788190"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizePhone(tc.input)
			if got != tc.want {
				t.Fatalf("NormalizePhone(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizePhoneIdempotent(t *testing.T) {
	inputs := []string{
		"", UnknownContact, "+5491133788190", "5491133788190@s.whatsapp.net",
		"00495511223344", "01133788190", "5491133788190", "0", "00", "abc",
	}

	for _, input := range inputs {
		once := NormalizePhone(input)
		twice := NormalizePhone(once)
		if once != twice {
			t.Errorf("NormalizePhone not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}
