package colors

// DisableColor turns off ANSI coloring, e.g. when output is redirected or the user opted out.
func DisableColor() {
	enabled = false
}

func init() {
	EnableColor()
}
