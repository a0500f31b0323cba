package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"eclipse-sequencer/internal/domain"
)

// Console writes notifications as plain lines, the terminal stand-in for an
// on-screen message.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

var _ domain.Notifier = (*Console)(nil)

// NewConsole creates a notifier writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Notify prints the message. The display duration has no console meaning.
func (c *Console) Notify(message string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "[notify] %s\n", message)
}

// Multi fans a notification out to several notifiers in order.
type Multi []domain.Notifier

var _ domain.Notifier = Multi(nil)

// Notify forwards to every notifier.
func (m Multi) Notify(message string, duration time.Duration) {
	for _, n := range m {
		if n != nil {
			n.Notify(message, duration)
		}
	}
}
