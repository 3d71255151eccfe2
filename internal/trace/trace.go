package trace

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/exprtrace/internal/expr"
)

// ErrUnhandledKind is returned in strict mode when the tree contains a
// node kind with no handler.
var ErrUnhandledKind = errors.New("node kind not processed")

// ErrNilNode is returned when a nil node is visited.
var ErrNilNode = errors.New("nil node")

// Handler prints one node and visits its children through w.
type Handler func(w *Walker, n expr.Node, prefix string) error

// Stats summarizes a traversal.
type Stats struct {
	Nodes     int         // nodes dispatched to a handler
	Lines     int         // lines written to the trace output
	Unhandled []expr.Kind // one entry per node with no handler, in visit order
}

// Tracer writes traces of expression trees.
type Tracer struct {
	out      io.Writer
	diag     io.Writer
	indent   string
	strict   bool
	logger   *slog.Logger
	handlers map[expr.Kind]Handler
}

// Option configures a Tracer.
type Option func(*Tracer)

// WithIndent sets the string appended to the prefix for each nesting level.
func WithIndent(indent string) Option {
	return func(t *Tracer) { t.indent = indent }
}

// WithDiagnostics sets where "Node not processed yet" lines go. They are
// kept apart from the trace output and never counted in Stats.Lines.
func WithDiagnostics(w io.Writer) Option {
	return func(t *Tracer) { t.diag = w }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracer) { t.logger = l }
}

// WithStrict makes Trace return ErrUnhandledKind when any kind was unhandled.
func WithStrict(strict bool) Option {
	return func(t *Tracer) { t.strict = strict }
}

// WithHandler installs or replaces the handler for kind.
func WithHandler(kind expr.Kind, h Handler) Option {
	return func(t *Tracer) { t.handlers[kind] = h }
}

// WithoutHandler removes the handler for kind, making it unhandled.
func WithoutHandler(kind expr.Kind) Option {
	return func(t *Tracer) { delete(t.handlers, kind) }
}

// New creates a Tracer writing to out. Defaults: tab indent, diagnostics
// discarded, slog.Default logger, soft handling of unknown kinds.
func New(out io.Writer, opts ...Option) *Tracer {
	t := &Tracer{
		out:      out,
		diag:     io.Discard,
		indent:   "\t",
		logger:   slog.Default(),
		handlers: DefaultHandlers(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Handles reports whether kind has a handler.
func (t *Tracer) Handles(kind expr.Kind) bool {
	return t.handlers[kind] != nil
}

// Trace writes the trace of root. Every line starts with prefix followed by
// one indent per nesting level.
//
// Unhandled kinds are reported on the diagnostics writer and in Stats; they
// are an error only in strict mode, and then only after the whole tree has
// been traced. Write errors abort the traversal.
func (t *Tracer) Trace(root expr.Node, prefix string) (Stats, error) {
	w := &Walker{tracer: t}
	if err := w.Visit(root, prefix); err != nil {
		return w.stats, err
	}

	t.logger.Debug("trace complete",
		"nodes", w.stats.Nodes,
		"lines", w.stats.Lines,
		"unhandled", len(w.stats.Unhandled),
	)

	if t.strict && len(w.stats.Unhandled) > 0 {
		return w.stats, fmt.Errorf("%w: %s", ErrUnhandledKind, w.stats.Unhandled[0])
	}
	return w.stats, nil
}

// String traces root with a fresh Tracer and returns the output.
func String(root expr.Node, opts ...Option) (string, Stats, error) {
	var b strings.Builder
	stats, err := New(&b, opts...).Trace(root, "")
	return b.String(), stats, err
}

// Walker carries the state of one traversal. Handlers use it to print
// lines and visit children.
type Walker struct {
	tracer *Tracer
	stats  Stats
}

// Visit dispatches n on its kind.
func (w *Walker) Visit(n expr.Node, prefix string) error {
	if n == nil {
		return ErrNilNode
	}
	h := w.tracer.handlers[n.Kind()]
	if h == nil {
		w.unhandled(n.Kind())
		return nil
	}
	w.stats.Nodes++
	return h(w, n, prefix)
}

// VisitChild visits n one nesting level below prefix.
func (w *Walker) VisitChild(n expr.Node, prefix string) error {
	return w.Visit(n, prefix+w.tracer.indent)
}

// Printf writes one line: prefix, the formatted text, newline.
func (w *Walker) Printf(prefix, format string, args ...any) error {
	if _, err := io.WriteString(w.tracer.out, prefix+fmt.Sprintf(format, args...)+"\n"); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	w.stats.Lines++
	return nil
}

func (w *Walker) unhandled(kind expr.Kind) {
	w.stats.Unhandled = append(w.stats.Unhandled, kind)
	// One user visible line per node: the log record drops to Debug
	// whenever the diagnostic line is shown.
	if w.tracer.diag == io.Discard {
		w.tracer.logger.Warn("node not processed", "kind", kind.String())
		return
	}
	// Best effort; a failing diagnostics writer must not stop the trace.
	_, _ = fmt.Fprintf(w.tracer.diag, "Node not processed yet: %s\n", kind)
	w.tracer.logger.Debug("node not processed", "kind", kind.String())
}
