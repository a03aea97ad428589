// Package ui is the interactive terminal front end: a router that mounts one view per
// route and a line-oriented command loop.
package ui

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"chainview/core/nav"
	"chainview/core/notify"
)

// View is one page of the app. Mount and Unmount bracket the time it is on screen.
type View interface {
	Title() string
	Mount(ctx context.Context) error
	Unmount()
	Render(w io.Writer) error
	// Handle runs a page-specific command and reports whether it recognized it.
	Handle(ctx context.Context, cmd string) (bool, error)
}

const helpText = `Commands:
  h | home          go to the home page
  b | blockchain    go to the blockchain
  c | transact      go to the conduct-a-transaction page
  p | pool          go to the transaction pool
  back              go to the previous page
  q | quit          exit
Page commands are listed on each page.
`

// App routes between views. Route changes requested while a command runs are applied
// by the command loop, never from inside a view.
type App struct {
	history *nav.History
	out     *lockedWriter
	views   map[string]View

	mu      sync.Mutex
	current View
	route   string
	pending string
	wake    chan struct{}

	renderMu sync.Mutex
}

// NewApp returns an app driven by history that writes to out.
func NewApp(history *nav.History, out io.Writer) *App {
	return &App{
		history: history,
		out:     &lockedWriter{w: out},
		views:   make(map[string]View),
		wake:    make(chan struct{}, 1),
	}
}

// Output is the writer the app renders to. Share it with anything else printing to the
// terminal so lines do not interleave.
func (a *App) Output() io.Writer { return a.out }

// Register binds v to route.
func (a *App) Register(route string, v View) {
	a.views[route] = v
}

// Route returns the route of the mounted view.
func (a *App) Route() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.route
}

// Redraw renders the mounted view. Views call it when their state changes.
func (a *App) Redraw() {
	a.renderMu.Lock()
	defer a.renderMu.Unlock()

	a.mu.Lock()
	v, route := a.current, a.route
	a.mu.Unlock()
	if v == nil {
		return
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "\n=== %s (%s) ===\n", v.Title(), route)
	if err := v.Render(&buf); err != nil {
		log.Printf("[UI] Render %s failed: %v", route, err)
		fmt.Fprintf(&buf, "Error: %v\n", err)
	}
	buf.WriteString("> ")
	a.out.Write(buf.Bytes())
}

// Run shows the history's current route and executes commands read from in until
// ctx is done, in is exhausted or the user quits. The mounted view is unmounted on return.
func (a *App) Run(ctx context.Context, in io.Reader) error {
	if len(a.views) == 0 {
		return errors.New("no views registered")
	}
	a.history.Listen(a.enqueue)
	a.show(ctx, a.history.Current())
	defer a.teardown()

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			log.Printf("[UI] Reading input failed: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.wake:
			a.applyPending(ctx)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := a.exec(ctx, line); quit {
				return nil
			}
			a.applyPending(ctx)
		}
	}
}

func (a *App) enqueue(route string) {
	a.mu.Lock()
	a.pending = route
	a.mu.Unlock()
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *App) applyPending(ctx context.Context) {
	a.mu.Lock()
	route := a.pending
	a.pending = ""
	a.mu.Unlock()
	if route != "" {
		a.show(ctx, route)
	}
}

// show unmounts the current view and mounts the one bound to route.
func (a *App) show(ctx context.Context, route string) {
	next, ok := a.views[route]
	if !ok {
		log.Printf("[UI] No view for route %s", route)
		fmt.Fprintf(a.out, "Error: nothing at %s\n> ", route)
		return
	}

	a.mu.Lock()
	prev := a.current
	a.current = nil
	a.mu.Unlock()
	if prev != nil {
		prev.Unmount()
	}

	if err := next.Mount(ctx); err != nil {
		log.Printf("[UI] Mount %s failed: %v", route, err)
		fmt.Fprintf(a.out, "Error: %v\n> ", err)
		return
	}
	a.mu.Lock()
	a.current, a.route = next, route
	a.mu.Unlock()
	log.Printf("[UI] Showing %s", route)
	a.Redraw()
}

func (a *App) teardown() {
	a.mu.Lock()
	v := a.current
	a.current = nil
	a.mu.Unlock()
	if v != nil {
		v.Unmount()
	}
}

// exec runs one input line and reports whether the user asked to quit.
func (a *App) exec(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		a.Redraw()
		return false
	}
	switch line {
	case "q", "quit", "exit":
		return true
	case "h", "home":
		a.history.Push(nav.RouteHome)
		return false
	case "b", "blockchain":
		a.history.Push(nav.RouteBlockchain)
		return false
	case "c", "transact":
		a.history.Push(nav.RouteConductTransaction)
		return false
	case "p", "pool":
		a.history.Push(nav.RouteTransactionPool)
		return false
	case "back":
		if !a.history.Back() {
			fmt.Fprint(a.out, "Already at the first page\n> ")
		}
		return false
	case "help", "?":
		fmt.Fprint(a.out, helpText+"> ")
		return false
	}

	a.mu.Lock()
	v := a.current
	a.mu.Unlock()
	if v == nil {
		fmt.Fprint(a.out, "Nothing to run that on\n> ")
		return false
	}
	handled, err := v.Handle(ctx, line)
	switch {
	case !handled:
		fmt.Fprintf(a.out, "Unknown command %q (type help)\n> ", line)
	case notify.WasShown(err):
		log.Printf("[UI] %q failed: %v", line, err)
	case err != nil:
		fmt.Fprintf(a.out, "Error: %v\n> ", err)
	default:
		a.mu.Lock()
		moving := a.pending != ""
		a.mu.Unlock()
		if !moving {
			a.Redraw()
		}
	}
	return false
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
