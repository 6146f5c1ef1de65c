//go:build !windows

package colors

import "fmt"

// enabled reports whether Colorize emits ANSI sequences. Unix terminals support them unless disabled explicitly.
var enabled = true

// EnableColor turns on ANSI coloring.
func EnableColor() {
	enabled = true
}

// Colorize wraps s in the ANSI code c, or returns it unchanged if coloring is disabled.
func Colorize(s any, c Color) string {
	if !enabled {
		return fmt.Sprintf("%v", s)
	}
	return fmt.Sprintf("\x1b[%dm%v\x1b[0m", c, s)
}
