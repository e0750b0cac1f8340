// Package markup prepares model output for Telegram's MarkdownV2 parse
// mode: escaping, bold formatting, and size-limited chunking.
package markup

import "strings"

// MaxMessageLength is Telegram's hard cap on outbound message text.
const MaxMessageLength = 4096

var specialChars = []string{"_", "*", "[", "]", "(", ")", "~", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}

// Escape backslash-escapes every MarkdownV2 special character. Text
// without special characters is returned unchanged.
func Escape(text string) string {
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

// FormatBold converts **bold** spans of raw model output into single-*
// MarkdownV2 bold, escaping each segment independently so the bold
// markers themselves survive escaping.
func FormatBold(text string) string {
	parts := strings.Split(text, "**")
	var b strings.Builder
	for i, part := range parts {
		if i%2 == 1 {
			b.WriteString("*")
			b.WriteString(Escape(part))
			b.WriteString("*")
		} else {
			b.WriteString(Escape(part))
		}
	}
	return b.String()
}

// Split cuts already-escaped text into chunks of at most limit runes,
// preserving order. A cut never lands immediately after an unpaired
// backslash, so an escape pair is never torn across two messages.
func Split(text string, limit int) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	var chunks []string
	for len(runes) > 0 {
		if len(runes) <= limit {
			chunks = append(chunks, string(runes))
			break
		}
		// Back off one rune when the cut would tear a "\x" pair,
		// but never to zero: progress beats pair safety at limit 1.
		cut := limit
		if cut > 1 && trailingBackslashes(runes[:cut])%2 == 1 {
			cut--
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	return chunks
}

func trailingBackslashes(runes []rune) int {
	n := 0
	for i := len(runes) - 1; i >= 0 && runes[i] == '\\'; i-- {
		n++
	}
	return n
}
