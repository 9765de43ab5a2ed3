package errors

import (
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	// DefaultHandler is the global error handler.
	// It defaults to a LogHandler backed by slog.Default.
	DefaultHandler ErrorHandler = &LogHandler{}

	handlerMu sync.RWMutex
)

// SetHandler configures the global error handler.
// Pass nil to restore the default LogHandler.
func SetHandler(h ErrorHandler) {
	handlerMu.Lock()
	defer handlerMu.Unlock()
	if h == nil {
		DefaultHandler = &LogHandler{}
	} else {
		DefaultHandler = h
	}
}

func getHandler() ErrorHandler {
	handlerMu.RLock()
	defer handlerMu.RUnlock()
	return DefaultHandler
}

// Report sends an error to the global handler.
// If err.Timestamp is zero, it is set to the current time.
func Report(err *NavError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	if h := getHandler(); h != nil {
		h.HandleError(err)
	}
}

// ReportPanic sends a panic error to the global handler.
func ReportPanic(err *PanicError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	if h := getHandler(); h != nil {
		h.HandlePanic(err)
	}
}

// Recover is a helper for deferred panic recovery in background goroutines.
// Usage: defer errors.Recover("navigation.persist")
//
// InvariantViolation panics are re-raised.
func Recover(op string) {
	if r := recover(); r != nil {
		if _, ok := r.(*InvariantViolation); ok {
			panic(r)
		}
		ReportPanic(&PanicError{
			Op:         op,
			Value:      r,
			StackTrace: CaptureStack(),
			Timestamp:  time.Now(),
		})
	}
}

// stackPrefix is this package's qualified name prefix, used to drop the
// recovery helpers from captured stacks.
var stackPrefix string

func init() {
	stackPrefix = strings.TrimSuffix(
		runtime.FuncForPC(reflect.ValueOf(CaptureStack).Pointer()).Name(), "CaptureStack")
}

// CaptureStack returns the calling goroutine's stack, one frame per entry.
// Called from Recover, the trace starts at the frame that panicked: the
// runtime's panic frames and this package's helpers are left out, so the
// first entry names the navigation code that failed.
func CaptureStack() string {
	const maxDepth = 32
	var pcs [maxDepth]uintptr
	n := runtime.Callers(1, pcs[:])
	if n == 0 {
		return ""
	}

	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	leading := true
	for {
		frame, more := frames.Next()
		if leading && isHelperFrame(frame.Function) {
			if !more {
				break
			}
			continue
		}
		leading = false
		sb.WriteString(frame.Function)
		sb.WriteString("\n\t")
		sb.WriteString(frame.File)
		sb.WriteString(":")
		sb.WriteString(strconv.Itoa(frame.Line))
		sb.WriteString("\n")
		if !more {
			break
		}
	}
	return sb.String()
}

func isHelperFrame(fn string) bool {
	switch fn {
	case stackPrefix + "CaptureStack", stackPrefix + "Recover":
		return true
	}
	return strings.HasPrefix(fn, "runtime.")
}
