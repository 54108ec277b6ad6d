// Package notice carries transient, non-blocking user messages (toasts).
package notice

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Notifier receives user-visible notices.
type Notifier interface {
	Notify(msg string)
}

// Printer writes notices to a writer as they arrive.
type Printer struct {
	mu     sync.Mutex
	out    io.Writer
	logger *zap.SugaredLogger
}

// NewPrinter creates a Printer; logger may be nil.
func NewPrinter(out io.Writer, logger *zap.SugaredLogger) *Printer {
	return &Printer{out: out, logger: logger}
}

func (p *Printer) Notify(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "! %s\n", msg)
	if p.logger != nil {
		p.logger.Debugw("notice", "message", msg)
	}
}

// Collector keeps notices in memory.
type Collector struct {
	mu   sync.Mutex
	msgs []string
}

func (c *Collector) Notify(msg string) {
	c.mu.Lock()
	c.msgs = append(c.msgs, msg)
	c.mu.Unlock()
}

// Messages returns a copy of the collected notices.
func (c *Collector) Messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.msgs...)
}

// Discard drops every notice.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(string) {}
