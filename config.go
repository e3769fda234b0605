package awaittree

// Config controls how a root Context is created.
type Config struct {
	// Verbose enables recording of spans created with VerboseInstrumentAwait
	// or carrying the verbose attribute.
	Verbose bool
	// Clock overrides the context's time source; nil uses DefaultClock.
	Clock Clock
}

// NewConfig returns the zero-value Config: non-verbose, default clock.
func NewConfig() Config {
	return Config{}
}

// WithVerbose returns a copy of c with Verbose set to v.
func (c Config) WithVerbose(v bool) Config {
	c.Verbose = v
	return c
}

// WithClock returns a copy of c with Clock set to clock.
func (c Config) WithClock(clock Clock) Config {
	c.Clock = clock
	return c
}
