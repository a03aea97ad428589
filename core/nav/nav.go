package nav

import "sync"

// Client-side routes.
const (
	RouteHome               = "/"
	RouteBlockchain         = "/blockchain"
	RouteConductTransaction = "/conduct-transaction"
	RouteTransactionPool    = "/transaction-pool"
)

// Link is a labelled route shown in a view header.
type Link struct {
	Label string
	Route string
}

// Links are the navigation links every view renders.
func Links() []Link {
	return []Link{
		{Label: "Home", Route: RouteHome},
		{Label: "Blockchain", Route: RouteBlockchain},
		{Label: "Conduct a Transaction", Route: RouteConductTransaction},
	}
}

// Navigator changes the current route.
type Navigator interface {
	Push(route string)
}

// History is a Navigator that keeps the visited routes and tells listeners about changes.
type History struct {
	mu        sync.Mutex
	stack     []string
	listeners []func(route string)
}

// NewHistory returns a History positioned at start.
func NewHistory(start string) *History {
	return &History{stack: []string{start}}
}

// Listen registers fn to run after every route change.
func (h *History) Listen(fn func(route string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Push moves to route and notifies listeners.
func (h *History) Push(route string) {
	h.mu.Lock()
	h.stack = append(h.stack, route)
	listeners := append([]func(string){}, h.listeners...)
	h.mu.Unlock()
	for _, fn := range listeners {
		fn(route)
	}
}

// Back pops the current route. It returns false at the first entry.
func (h *History) Back() bool {
	h.mu.Lock()
	if len(h.stack) <= 1 {
		h.mu.Unlock()
		return false
	}
	h.stack = h.stack[:len(h.stack)-1]
	route := h.stack[len(h.stack)-1]
	listeners := append([]func(string){}, h.listeners...)
	h.mu.Unlock()
	for _, fn := range listeners {
		fn(route)
	}
	return true
}

// Current returns the route on top of the stack.
func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stack[len(h.stack)-1]
}

// Len is the number of entries, including the starting one.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.stack)
}
