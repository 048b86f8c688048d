package domain

import "strings"

// UnknownContact is the sentinel conversation id used when no phone or
// provider address could be derived. It is not a valid phone number.
const UnknownContact = "Desconocido"

// NormalizePhone canonicalizes a remote address into the +<countrycode><number>
// form used as conversation key. JID-style suffixes ("@s.whatsapp.net") are
// stripped, international "00" and trunk "0" prefixes become "+", and bare
// numbers get a "+" prepended. The function is pure and idempotent.
func NormalizePhone(value string) string {
	if value == "" {
		return UnknownContact
	}
	plain := value
	if i := strings.IndexByte(plain, '@'); i >= 0 {
		plain = plain[:i]
	}
	switch {
	case plain == "" || plain == UnknownContact:
		return UnknownContact
	case strings.HasPrefix(plain, "+"):
		return plain
	case strings.HasPrefix(plain, "00"):
		return "+" + plain[2:]
	case strings.HasPrefix(plain, "0"):
		return "+" + plain[1:]
	}
	return "+" + plain
}
