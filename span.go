package awaittree

import "fmt"

// A Span is the label attached to a single suspension point in an await-tree.
// It is an immutable value: cloning it is just a struct copy, and a plain Go
// string already gives us the O(1)-share-identical-literals property the
// spec asks for, so there is no dedicated ref-counted string type here.
type Span struct {
	name          string
	isVerbose     bool
	isLongRunning bool
}

// NewSpan creates a Span with the given name and default (non-verbose,
// non-long-running) attributes.
func NewSpan(name string) Span {
	return Span{name: name}
}

// Spanf formats a Span's name the same way fmt.Sprintf would. It exists so
// that call sites reads like the attribute-macro-desugared form described in
// the attribute-macro-desugared form this mirrors on the Rust side.
func Spanf(format string, args ...any) Span {
	return NewSpan(fmt.Sprintf(format, args...))
}

// Verbose returns a copy of s with the verbose attribute set. Wrappers built
// from a verbose span are only pushed onto the tree when the owning context
// was registered with Config.Verbose true.
func (s Span) Verbose() Span {
	s.isVerbose = true
	return s
}

// LongRunning returns a copy of s with the long-running attribute set,
// suppressing the stale-span warning in Tree.String regardless of elapsed
// time.
func (s Span) LongRunning() Span {
	s.isLongRunning = true
	return s
}

// Name returns the span's label.
func (s Span) Name() string { return s.name }

// IsVerbose reports whether s carries the verbose attribute.
func (s Span) IsVerbose() bool { return s.isVerbose }

// IsLongRunning reports whether s carries the long-running attribute.
func (s Span) IsLongRunning() bool { return s.isLongRunning }

// String implements fmt.Stringer, printing only the span's name.
func (s Span) String() string { return s.name }

// ToSpan lets any string-like value produce a Span, mirroring the
// value-polymorphic "anything convertible to Span" extension point named in
// extension point.
type ToSpan interface {
	~string
}

// SpanOf converts a string-like value to a Span.
func SpanOf[T ToSpan](v T) Span {
	return NewSpan(string(v))
}
