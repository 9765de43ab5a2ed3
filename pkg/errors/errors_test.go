package errors

import (
	"bytes"
	stderrors "errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNavErrorString(t *testing.T) {
	err := &NavError{
		Op:   "navigation.persist",
		Kind: KindPersistence,
		Err:  stderrors.New("disk full"),
	}
	got := err.Error()
	want := "navigation.persist [persistence]: disk full"
	if got != want {
		t.Errorf("NavError.Error() = %q, want %q", got, want)
	}
}

func TestNavErrorWithKey(t *testing.T) {
	err := &NavError{
		Op:   "navigation.persist",
		Kind: KindPersistence,
		Key:  "nav-v1",
		Err:  stderrors.New("disk full"),
	}
	if !strings.Contains(err.Error(), "key=nav-v1") {
		t.Errorf("error string %q should contain key", err.Error())
	}
}

func TestNavErrorUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := &NavError{Op: "op", Kind: KindLinking, Err: cause}
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindConfig, "config"},
		{KindInvariant, "invariant"},
		{KindPersistence, "persistence"},
		{KindHydration, "hydration"},
		{KindLinking, "linking"},
		{KindPanic, "panic"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestConfigurationConflictErrorListsKeys(t *testing.T) {
	err := &ConfigurationConflictError{Keys: []string{"persistenceKey", "uriPrefix"}}
	got := err.Error()
	if !strings.Contains(got, `"persistenceKey, uriPrefix"`) {
		t.Errorf("error %q should list the conflicting keys", got)
	}
}

func TestPersistenceWriteErrorUnwrap(t *testing.T) {
	cause := stderrors.New("timeout")
	err := &PersistenceWriteError{Key: "k", Err: cause}
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	var target *PersistenceWriteError
	if !stderrors.As(error(err), &target) || target.Key != "k" {
		t.Error("errors.As should match PersistenceWriteError")
	}
}

func TestPanicErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *PanicError
		want string
	}{
		{"without op", &PanicError{Value: "test panic"}, "panic: test panic"},
		{"with op", &PanicError{Op: "navigation.bootstrap", Value: "test panic"}, "panic in navigation.bootstrap: test panic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("PanicError.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReport(t *testing.T) {
	var captured *NavError
	handler := &testHandler{
		onError: func(err *NavError) {
			captured = err
		},
	}

	oldHandler := DefaultHandler
	SetHandler(handler)
	defer SetHandler(oldHandler)

	Report(&NavError{
		Op:   "test.op",
		Kind: KindHydration,
		Err:  stderrors.New("bad state"),
	})

	if captured == nil {
		t.Fatal("expected error to be captured")
	}
	if captured.Op != "test.op" {
		t.Errorf("Op = %q, want %q", captured.Op, "test.op")
	}
	if captured.Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestReportNil(t *testing.T) {
	called := false
	oldHandler := DefaultHandler
	SetHandler(&testHandler{onError: func(*NavError) { called = true }})
	defer SetHandler(oldHandler)

	Report(nil)
	ReportPanic(nil)
	if called {
		t.Error("nil errors must not reach the handler")
	}
}

func TestRecover(t *testing.T) {
	var captured *PanicError
	oldHandler := DefaultHandler
	SetHandler(&testHandler{onPanic: func(err *PanicError) { captured = err }})
	defer SetHandler(oldHandler)

	func() {
		defer Recover("test.recover")
		panic("intentional test panic")
	}()

	if captured == nil {
		t.Fatal("expected panic to be recovered and captured")
	}
	if captured.Value != "intentional test panic" {
		t.Errorf("Value = %v, want %q", captured.Value, "intentional test panic")
	}
	if captured.Op != "test.recover" {
		t.Errorf("Op = %q, want %q", captured.Op, "test.recover")
	}
}

func TestRecoverRethrowsInvariantViolation(t *testing.T) {
	violation := &InvariantViolation{Op: "test", Reason: "no state"}
	defer func() {
		if r := recover(); r != violation {
			t.Errorf("recovered %v, want the original violation", r)
		}
	}()
	func() {
		defer Recover("test.recover")
		panic(violation)
	}()
}

func TestCaptureStack(t *testing.T) {
	stack := CaptureStack()
	if stack == "" {
		t.Error("expected non-empty stack trace")
	}
	if !strings.Contains(stack, "testing") && !strings.Contains(stack, "runtime") {
		t.Errorf("stack trace should contain testing or runtime frames, got: %s", stack)
	}
}

func failingStep() {
	panic("step failed")
}

func TestRecoverStackStartsAtPanic(t *testing.T) {
	var captured *PanicError
	oldHandler := DefaultHandler
	SetHandler(&testHandler{onPanic: func(err *PanicError) { captured = err }})
	defer SetHandler(oldHandler)

	func() {
		defer Recover("test.stack")
		failingStep()
	}()

	if captured == nil {
		t.Fatal("expected panic to be recovered and captured")
	}
	first, _, _ := strings.Cut(captured.StackTrace, "\n")
	if !strings.HasSuffix(first, ".failingStep") {
		t.Errorf("first frame = %q, want failingStep", first)
	}
	for _, hidden := range []string{"runtime.gopanic", stackPrefix + "Recover\n", stackPrefix + "CaptureStack"} {
		if strings.Contains(captured.StackTrace, hidden) {
			t.Errorf("stack trace contains %q:\n%s", hidden, captured.StackTrace)
		}
	}
}

func TestSetHandlerNil(t *testing.T) {
	oldHandler := DefaultHandler
	defer SetHandler(oldHandler)

	SetHandler(nil)
	if _, ok := DefaultHandler.(*LogHandler); !ok {
		t.Errorf("SetHandler(nil) should set LogHandler, got %T", DefaultHandler)
	}
}

func TestLogHandlerWritesStructuredRecords(t *testing.T) {
	var buf bytes.Buffer
	h := &LogHandler{Logger: slog.New(slog.NewTextHandler(&buf, nil)), Verbose: true}

	h.HandleError(&NavError{Op: "navigation.persist", Kind: KindPersistence, Key: "nav", Err: stderrors.New("denied"), Timestamp: time.Now()})
	h.HandlePanic(&PanicError{Op: "navigation.bootstrap", Value: "boom", StackTrace: "frame"})

	out := buf.String()
	for _, want := range []string{"kind=persistence", "key=nav", "op=navigation.bootstrap", "stack=frame"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

type testHandler struct {
	onError func(*NavError)
	onPanic func(*PanicError)
}

func (h *testHandler) HandleError(err *NavError) {
	if h.onError != nil {
		h.onError(err)
	}
}

func (h *testHandler) HandlePanic(err *PanicError) {
	if h.onPanic != nil {
		h.onPanic(err)
	}
}
