package utils

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// TruncateToLines wraps text and cuts it to maxLines, ending the last line with "..."
func TruncateToLines(text string, maxLines int, maxWidth int) string {
	lines := WrapText(text, maxWidth)
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}

	result := strings.Join(lines[:maxLines-1], "\n")

	lastLine := lines[maxLines-1]
	if runewidth.StringWidth(lastLine) > maxWidth-3 {
		lastLine = runewidth.Truncate(lastLine, maxWidth-3, "")
	}
	lastLine += "..."

	if result == "" {
		return lastLine
	}
	return result + "\n" + lastLine
}

// WrapText wraps text at word boundaries to fit within maxWidth
func WrapText(text string, maxWidth int) []string {
	words := strings.Fields(text)

	var lines []string
	var currentLine strings.Builder
	currentWidth := 0

	for _, word := range words {
		wordWidth := runewidth.StringWidth(word)

		switch {
		case currentWidth == 0:
			currentLine.WriteString(word)
			currentWidth = wordWidth
		case currentWidth+1+wordWidth <= maxWidth:
			currentLine.WriteString(" ")
			currentLine.WriteString(word)
			currentWidth += 1 + wordWidth
		default:
			lines = append(lines, currentLine.String())
			currentLine.Reset()
			currentLine.WriteString(word)
			currentWidth = wordWidth
		}
	}

	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	return lines
}

// TruncateWithWidth cuts text to maxWidth display cells, adding "..." when
// something was cut. Wide (CJK, emoji) runes count double.
func TruncateWithWidth(text string, maxWidth int) string {
	if runewidth.StringWidth(text) <= maxWidth {
		return text
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(text, maxWidth, "")
	}
	return runewidth.Truncate(text, maxWidth, "...")
}

// FitWidth truncates or right-pads text to exactly width display cells
func FitWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.FillRight(TruncateWithWidth(text, width), width)
}
