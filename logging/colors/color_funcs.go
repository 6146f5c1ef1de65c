package colors

import "fmt"

// ColorFunc is a function which renders its argument as a colorized string. Loggers treat a ColorFunc argument as a
// switch of the color applied to the arguments that follow it.
type ColorFunc = func(s any) string

// Reset renders its argument without any coloring. It is used to end a colored span in a log message.
func Reset(s any) string {
	return fmt.Sprintf("%v", s)
}

// colorFunc returns a ColorFunc applying the given colors in order.
func colorFunc(codes ...Color) ColorFunc {
	return func(s any) string {
		out := fmt.Sprintf("%v", s)
		for _, c := range codes {
			out = Colorize(out, c)
		}
		return out
	}
}

var (
	// Red colors text red.
	Red = colorFunc(RED)
	// RedBold colors text red and bold.
	RedBold = colorFunc(RED, BOLD)
	// Green colors text green.
	Green = colorFunc(GREEN)
	// GreenBold colors text green and bold.
	GreenBold = colorFunc(GREEN, BOLD)
	// Yellow colors text yellow.
	Yellow = colorFunc(YELLOW)
	// YellowBold colors text yellow and bold.
	YellowBold = colorFunc(YELLOW, BOLD)
	// Blue colors text blue.
	Blue = colorFunc(BLUE)
	// BlueBold colors text blue and bold.
	BlueBold = colorFunc(BLUE, BOLD)
	// Magenta colors text magenta.
	Magenta = colorFunc(MAGENTA)
	// Cyan colors text cyan.
	Cyan = colorFunc(CYAN)
	// CyanBold colors text cyan and bold.
	CyanBold = colorFunc(CYAN, BOLD)
	// Bold renders text bold.
	Bold = colorFunc(BOLD)
	// DarkGray colors text dark gray.
	DarkGray = colorFunc(DARK_GRAY)
)
