package httperr

import (
	"runtime"
	"strconv"
	"strings"
)

const maxStackDepth = 32

// callers formats the calling goroutine's stack the way runtime tracebacks
// do, skipping the given number of frames.
func callers(skip int) string {
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(skip+1, pcs)
	if n == 0 {
		return ""
	}

	frames := runtime.CallersFrames(pcs[:n])
	var b strings.Builder
	for {
		frame, more := frames.Next()
		b.WriteString(frame.Function)
		b.WriteString("\n\t")
		b.WriteString(frame.File)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(frame.Line))
		b.WriteByte('\n')
		if !more {
			break
		}
	}
	return b.String()
}
