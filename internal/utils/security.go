// internal/utils/security.go
package utils

import (
	"regexp"
	"strings"
)

var identifierPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// IsValidIdentifier reports whether token is a canonical 36 character
// identifier with a version nibble of 1-5 and an RFC 4122 variant.
func IsValidIdentifier(token string) bool {
	return identifierPattern.MatchString(token)
}

// OwnerMatches is strict equality that fails closed on an absent caller.
func OwnerMatches(currentIdentity, targetIdentity string) bool {
	if currentIdentity == "" {
		return false
	}
	return currentIdentity == targetIdentity
}

// ParticipantMatches reports whether the caller is the buyer or the seller.
func ParticipantMatches(currentIdentity, buyerIdentity, sellerIdentity string) bool {
	if currentIdentity == "" {
		return false
	}
	return currentIdentity == buyerIdentity || currentIdentity == sellerIdentity
}

// MaskContact keeps the first character of the local part and the domain:
// user@example.com becomes u***@example.com.
func MaskContact(address string) string {
	if address == "" || !strings.Contains(address, "@") {
		return "***"
	}

	parts := strings.Split(address, "@")
	local, domain := parts[0], parts[1]

	if len(local) <= 1 {
		return local + "***@" + domain
	}

	first := []rune(local)[0]
	return string(first) + "***@" + domain
}

// SensitiveRecord is a record that may expose a contact address.
type SensitiveRecord[T any] interface {
	RecordID() string
	Contact() (string, bool)
	WithContact(contact string) T
}

// FilterSensitive returns record unchanged when it belongs to the caller and
// otherwise a copy with its contact address masked.
func FilterSensitive[T SensitiveRecord[T]](record T, currentIdentity string) T {
	if OwnerMatches(currentIdentity, record.RecordID()) {
		return record
	}

	contact, ok := record.Contact()
	if !ok {
		return record
	}
	return record.WithContact(MaskContact(contact))
}

var userTextEscaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// EscapeUserText escapes < > " ' and / in user supplied text. Ampersands are
// left alone.
func EscapeUserText(text string) string {
	if text == "" {
		return ""
	}
	return userTextEscaper.Replace(text)
}
