// Package notify provides sinks for the toast-style notices raised by cart operations.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"pharmacy/domain"
	"pharmacy/logger"
)

// LogNotifier writes each notice as a structured log line.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(l *logger.Logger) *LogNotifier {
	if l == nil {
		l = logger.Nop()
	}
	return &LogNotifier{log: l}
}

func (n *LogNotifier) Notify(ctx context.Context, notice domain.Notice) {
	level := zerolog.InfoLevel
	if notice.Severity == domain.SeverityError {
		level = zerolog.WarnLevel
	}
	n.log.Event(ctx, level).
		Str("notice", string(notice.Kind)).
		Str("product_id", notice.ProductID).
		Msg(notice.Message)
}

// WriterNotifier prints notices for a terminal user.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Notify(_ context.Context, notice domain.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "[%s] %s\n", notice.Severity, notice.Message)
}

// Recorder keeps every notice in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []domain.Notice
}

func (r *Recorder) Notify(_ context.Context, notice domain.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice)
}

// Notices returns a copy of everything recorded so far.
func (r *Recorder) Notices() []domain.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Last returns the most recent notice, if any.
func (r *Recorder) Last() (domain.Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return domain.Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = nil
}

// Multi fans a notice out to every sink in order.
type Multi []domain.Notifier

func (m Multi) Notify(ctx context.Context, notice domain.Notice) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, notice)
		}
	}
}

// Discard drops every notice.
var Discard domain.Notifier = domain.NotifierFunc(func(context.Context, domain.Notice) {})
