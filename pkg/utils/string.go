package utils

// TruncationMarker is appended whenever a string is hard-capped.
const TruncationMarker = "..."

// Truncate caps s at maxRunes runes, appending TruncationMarker when the
// input was cut. Rune-based so CJK text is never split mid-character.
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + TruncationMarker
}
