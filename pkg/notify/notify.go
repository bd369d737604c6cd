// Package notify delivers user-facing notifications (title, message, severity)
// to whatever surface hosts the pipeline: a log, an HTTP response, a terminal.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Severity classifies a notification.
type Severity string

const (
	Success Severity = "success"
	Info    Severity = "info"
	Warning Severity = "warning"
	Error   Severity = "error"
)

// Notification is a single user-facing message.
type Notification struct {
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Notifier receives notifications. Delivery is fire-and-forget.
type Notifier interface {
	Notify(n Notification)
}

// Func adapts a function to the Notifier interface.
type Func func(Notification)

func (f Func) Notify(n Notification) {
	f(n)
}

// Errorf is shorthand for an error notification titled "Error".
func Errorf(n Notifier, message string) {
	n.Notify(Notification{Title: "Error", Message: message, Severity: Error})
}

// Log returns a Notifier that writes notifications to logger at a level
// derived from severity.
func Log(logger *slog.Logger) Notifier {
	logger = logger.With("system", "notify")
	return Func(func(n Notification) {
		logger.Log(
			context.Background(), level(n.Severity), n.Message,
			"title", n.Title,
			"severity", n.Severity,
		)
	})
}

func level(s Severity) slog.Level {
	switch s {
	case Error:
		return slog.LevelError
	case Warning:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// Multi fans a notification out to every notifier in order.
func Multi(notifiers ...Notifier) Notifier {
	return Func(func(n Notification) {
		for _, nt := range notifiers {
			nt.Notify(n)
		}
	})
}

type contextKey struct{}

// NewContext returns a copy of ctx that carries n. Work running under the
// returned context reports to n through Scoped.
func NewContext(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, contextKey{}, n)
}

// FromContext returns the notifier carried by ctx, if any.
func FromContext(ctx context.Context) (Notifier, bool) {
	n, ok := ctx.Value(contextKey{}).(Notifier)
	return n, ok
}

// Scoped returns a notifier delivering to base and to the notifier carried by
// ctx. Without one it returns base.
func Scoped(ctx context.Context, base Notifier) Notifier {
	n, ok := FromContext(ctx)
	if !ok {
		return base
	}
	return Multi(base, n)
}

// Feed buffers notifications until they are drained, typically into the
// response of the request that produced them.
type Feed struct {
	mu    sync.Mutex
	items []Notification
}

// NewFeed creates an empty Feed.
func NewFeed() *Feed {
	return &Feed{}
}

func (f *Feed) Notify(n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, n)
}

// Drain returns and clears the buffered notifications.
func (f *Feed) Drain() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := f.items
	f.items = nil
	if items == nil {
		return []Notification{}
	}
	return items
}

// Len returns the number of buffered notifications.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}
