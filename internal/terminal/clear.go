// Package terminal clears prompt text that should not stay on screen, such as
// the echoed host session token.
package terminal

import (
	"os"

	"atomicgo.dev/cursor"
	"golang.org/x/term"
)

const defaultWidth = 80

// LinesUsed returns how many terminal rows textLength characters occupy at
// width, plus the empty row left after Enter.
func LinesUsed(textLength, width int) int {
	if width <= 0 {
		width = defaultWidth
	}
	lines := (textLength + width - 1) / width
	if lines < 1 {
		lines = 1
	}
	return lines + 1
}

// ClearPreviousLines erases the rows used by textLength characters of prompt
// and input, leaving the cursor at the start of the first one.
func ClearPreviousLines(textLength int) {
	width := defaultWidth
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}

	n := LinesUsed(textLength, width)
	for i := 0; i < n; i++ {
		cursor.StartOfLine()
		cursor.ClearLine()
		if i < n-1 {
			cursor.Up(1)
		}
	}
}
