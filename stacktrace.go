package awaittree

import (
	"fmt"
	"go/build"
	"runtime"
	"strings"
)

const unknownFrame = "unknown"

// Frame is a single Go runtime stack frame, trimmed to what a warning
// message needs to point a caller at the poll site responsible for an
// environmental anomaly.
type Frame struct {
	Function string
	Module   string
	Filename string
	Lineno   int
	InApp    bool
}

// Stacktrace holds the user-relevant frames captured at a call site, with
// frames internal to this package and the Go runtime itself already
// stripped out.
type Stacktrace struct {
	Frames []Frame
}

// String renders the innermost in-app frame as "module.function (file:line)",
// or "unknown" if the stack capture found nothing usable. It is what
// Instrumented's mismatch warnings append after their message, so a log
// reader can jump straight to the offending poll call without attaching a
// debugger.
func (s *Stacktrace) String() string {
	if s == nil {
		return unknownFrame
	}
	for _, f := range s.Frames {
		if f.InApp {
			return fmt.Sprintf("%s.%s (%s:%d)", f.Module, f.Function, f.Filename, f.Lineno)
		}
	}
	return unknownFrame
}

// callerStacktrace captures the stack as seen from skip frames above its own
// caller, the same runtime.Callers/CallersFrames walk used for
// its error-reporting Stacktrace, adapted here to drop Sentry's JSON
// transport shape and keep only what a log line needs.
func callerStacktrace(skip int) *Stacktrace {
	pc := make([]uintptr, 32)
	n := runtime.Callers(skip+2, pc) // +2: skip runtime.Callers and this func
	if n == 0 {
		return nil
	}
	return &Stacktrace{Frames: userStackFrames(pc[:n])}
}

// userStackFrames returns Go runtime stack frames relevant to a caller of
// this package, innermost first: frames internal to awaittree are skipped,
// and the walk stops once it reaches the Go runtime's own frames (typically
// runtime.main, just past main.main).
func userStackFrames(pc []uintptr) []Frame {
	frames := runtime.CallersFrames(pc)

	var s []Frame
	for {
		frame, more := frames.Next()

		if strings.HasPrefix(frame.Function, "github.com/awaittree/awaittree-go.") {
			if !more {
				break
			}
			continue
		}
		if strings.HasPrefix(frame.Function, "runtime.") {
			break
		}

		s = append(s, newFrame(frame))

		if !more {
			break
		}
	}
	return s
}

func newFrame(f runtime.Frame) Frame {
	filename := f.File
	if filename != "" {
		if idx := strings.LastIndexByte(filename, '/'); idx != -1 {
			filename = filename[idx+1:]
		}
	} else {
		filename = unknownFrame
	}

	var module, function string
	if f.Function != "" {
		module, function = deconstructFunctionName(f.Function)
	}

	frame := Frame{
		Filename: filename,
		Lineno:   f.Line,
		Module:   module,
		Function: function,
	}
	frame.InApp = isInAppFrame(frame, f.File)
	return frame
}

func isInAppFrame(frame Frame, absPath string) bool {
	if strings.HasPrefix(absPath, build.Default.GOROOT) ||
		strings.Contains(frame.Module, "vendor") {
		return false
	}
	return true
}

// deconstructFunctionName splits "pkg/path.Type.Method" into
// ("pkg/path.Type", "Method").
func deconstructFunctionName(name string) (module string, function string) {
	if idx := strings.LastIndex(name, "."); idx != -1 {
		module = name[:idx]
		function = name[idx+1:]
	} else {
		function = name
	}
	return module, function
}
