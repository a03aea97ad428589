package notify

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/pkg/errors"
)

// Level is the kind of notification shown to the user.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is one message for the user, e.g. "Mining has begun!".
type Notification struct {
	Level   Level
	Message string
	Route   string // route the notification was raised from
}

// Notifier shows notifications to the user.
type Notifier interface {
	Notify(n Notification)
}

// Writer prints notifications to an io.Writer, one line each.
type Writer struct {
	mu  sync.Mutex
	Out io.Writer
}

// NewWriter returns a Writer printing to out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{Out: out}
}

// Notify prints the notification and logs it.
func (w *Writer) Notify(n Notification) {
	log.Printf("[NOTIFY] Level: %s | Route: %s | %s", n.Level, n.Route, n.Message)
	w.mu.Lock()
	defer w.mu.Unlock()
	if n.Level == LevelError {
		fmt.Fprintf(w.Out, "!! %s\n", n.Message)
		return
	}
	fmt.Fprintf(w.Out, ">> %s\n", n.Message)
}

// Info builds an info notification.
func Info(route, msg string) Notification {
	return Notification{Level: LevelInfo, Message: msg, Route: route}
}

// Error builds an error notification.
func Error(route, msg string) Notification {
	return Notification{Level: LevelError, Message: msg, Route: route}
}

type shownError struct{ err error }

func (e shownError) Error() string { return e.err.Error() }
func (e shownError) Unwrap() error { return e.err }
func (e shownError) Cause() error  { return e.err }

// Shown marks err as already presented to the user, so callers up the stack do not
// report it again. errors.Is and errors.Cause still see the original error.
func Shown(err error) error {
	if err == nil {
		return nil
	}
	return shownError{err: err}
}

// WasShown reports whether err, or an error it wraps, was marked with Shown.
func WasShown(err error) bool {
	var s shownError
	return errors.As(err, &s)
}
