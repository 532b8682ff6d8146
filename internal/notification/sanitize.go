package notification

import "strings"

// maxSMSLength caps a message at two concatenated GSM segments.
const maxSMSLength = 306

var unicodeReplacements = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'",
	"“", `"`, "”", `"`, "„", `"`,
	"–", "-", "—", "-", "…", "...",
	" ", " ",
	"₱", "PHP ",
	"ñ", "n", "Ñ", "N",
)

// SanitizeSMS reduces a message to printable ASCII. SMS gateways bill
// and segment unicode messages differently, so everything outside the
// 7-bit range is mapped to a close equivalent or dropped.
func SanitizeSMS(message string) string {
	message = unicodeReplacements.Replace(message)

	var b strings.Builder
	b.Grow(len(message))
	for _, r := range message {
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(' ')
		case r >= 0x20 && r < 0x7f:
			b.WriteRune(r)
		}
	}

	cleaned := strings.Join(strings.Fields(b.String()), " ")
	if len(cleaned) > maxSMSLength {
		cleaned = cleaned[:maxSMSLength]
	}
	return cleaned
}
