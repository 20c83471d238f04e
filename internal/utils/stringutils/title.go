package stringutils

import "strings"

// DefaultSessionTitle is the placeholder assigned to sessions before any
// user message has arrived.
const DefaultSessionTitle = "New conversation"

// sessionTitleMaxRunes bounds the derived title length before the ellipsis.
const sessionTitleMaxRunes = 50

// SessionTitle derives a session title from the first user message.
// Messages longer than 50 runes are cut at 50, trimmed, and suffixed
// with an ellipsis; shorter messages are used verbatim.
func SessionTitle(message string) string {
	runes := []rune(message)
	if len(runes) <= sessionTitleMaxRunes {
		return strings.TrimSpace(message)
	}
	return strings.TrimSpace(string(runes[:sessionTitleMaxRunes])) + "..."
}

// IsPlaceholderTitle reports whether a stored title should be replaced
// by a derived one on the next message.
func IsPlaceholderTitle(title string) bool {
	trimmed := strings.TrimSpace(title)
	return trimmed == "" || trimmed == DefaultSessionTitle
}
