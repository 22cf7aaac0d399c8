package report

import "strings"

// Split breaks a message into chunks of at most maxLen bytes, cutting only
// at ItemSeparator boundaries. A single block longer than maxLen is returned
// as its own chunk rather than torn apart.
func Split(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var messages []string
	current := ""
	for _, part := range strings.Split(text, ItemSeparator) {
		candidate := part
		if current != "" {
			candidate = current + ItemSeparator + part
		}
		if len(candidate) > maxLen && current != "" {
			messages = append(messages, current)
			current = part
		} else {
			current = candidate
		}
	}
	if current != "" {
		messages = append(messages, current)
	}
	return messages
}
