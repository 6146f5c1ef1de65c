package logging

// LogBuffer collects the arguments of a log message piece by piece. It is used to assemble multi-line, multi-colored
// output (campaign reports, call sequences) before handing it to a Logger in a single call.
type LogBuffer struct {
	// args is the list of arguments that the Logger concatenates.
	args []any
}

// NewLogBuffer creates an empty LogBuffer.
func NewLogBuffer() *LogBuffer {
	return &LogBuffer{
		args: make([]any, 0),
	}
}

// Append appends arguments to the buffer.
func (l *LogBuffer) Append(newArgs ...any) {
	l.args = append(l.args, newArgs...)
}

// Args returns the arguments stored in the buffer.
func (l *LogBuffer) Args() []any {
	return l.args
}

// String returns the non-colorized message of the buffer.
func (l *LogBuffer) String() string {
	_, msg, _, _ := buildMsgs(l.args...)
	return msg
}

// ColorString returns the colorized message of the buffer.
func (l *LogBuffer) ColorString() string {
	msg, _, _, _ := buildMsgs(l.args...)
	return msg
}
