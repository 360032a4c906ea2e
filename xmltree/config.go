package xmltree

// defaultEntityDepthLimit bounds nested general-entity expansion
// (references encountered while already expanding another entity).
// References made directly from document content are depth zero and
// never count against this cap; see Config.entityDepthLimit.
const defaultEntityDepthLimit = 10

// A Config holds the options that customize a single call to Parse. Use
// the Option functions below (AllowDTD, NodesLimit, WithPositions, ...)
// to build up a Config; do not construct one by hand.
type Config struct {
	allowDTD         bool
	nodesLimit       int
	positions        bool
	entityDepthLimit int
	logger           Logger
	loglevel         int
}

func newConfig(opts []Option) *Config {
	cfg := &Config{
		allowDTD:         true,
		entityDepthLimit: defaultEntityDepthLimit,
	}
	for _, opt := range DefaultOptions {
		opt(cfg)
	}
	cfg.Apply(opts...)
	return cfg
}

// An Option customizes a Config. Calling the returned Option undoes the
// change, the same way xsdgen.Option works in the code-generation
// package this pattern is borrowed from.
type Option func(*Config) Option

// ParseOption is an alias for Option, named for readability at call
// sites such as xmltree.Parse(doc, xmltree.AllowDTD(false)).
type ParseOption = Option

// DefaultOptions are applied before any options passed to Parse. There
// are none today; the slice exists so new defaults can be introduced in
// one place, mirroring xsdgen.DefaultOptions.
var DefaultOptions []Option

// Apply applies a list of options to cfg in order, returning an Option
// that would undo the last one applied.
func (cfg *Config) Apply(opts ...Option) (previous Option) {
	for _, opt := range opts {
		previous = opt(cfg)
	}
	return previous
}

// AllowDTD controls whether a DOCTYPE declaration is tolerated. When
// false, any <!DOCTYPE ...> in the input is a fatal DtdDetected error.
// Default: true.
func AllowDTD(allow bool) Option {
	return func(cfg *Config) Option {
		prev := cfg.allowDTD
		cfg.allowDTD = allow
		return AllowDTD(prev)
	}
}

// NodesLimit caps the total number of nodes (elements, text, comments,
// processing instructions and the root) that Parse will build before
// failing with NodesLimitReached. A limit of 0 means unbounded, which
// is the default.
func NodesLimit(n int) Option {
	return func(cfg *Config) Option {
		prev := cfg.nodesLimit
		cfg.nodesLimit = n
		return NodesLimit(prev)
	}
}

// WithPositions enables storing a byte-offset Position on every node
// and attribute. The int field that holds it is present either way;
// when disabled, it stays 0. Disabled by default.
func WithPositions(enable bool) Option {
	return func(cfg *Config) Option {
		prev := cfg.positions
		cfg.positions = enable
		return WithPositions(prev)
	}
}

// EntityDepthLimit overrides the nested general-entity expansion depth
// cap (default 10). References made directly from element or attribute
// content are depth zero and are never checked against this limit;
// only expansions nested inside another expansion are counted.
func EntityDepthLimit(n int) Option {
	return func(cfg *Config) Option {
		prev := cfg.entityDepthLimit
		cfg.entityDepthLimit = n
		return EntityDepthLimit(prev)
	}
}

// Logger receives diagnostic output during parsing, when enabled with
// WithLogger and LogLevel. *log.Logger satisfies this interface without
// any adaptation.
type Logger interface {
	Printf(format string, v ...interface{})
}

// WithLogger sets the Logger used for diagnostic output. Parsing never
// requires a Logger; with none configured (the default), logf/debugf
// calls below cost a single nil check.
func WithLogger(l Logger) Option {
	return func(cfg *Config) Option {
		prev := cfg.logger
		cfg.logger = l
		return WithLogger(prev)
	}
}

// LogLevel sets the verbosity of messages sent to the Logger configured
// with WithLogger. 1 enables state-machine transitions; 3 additionally
// enables per-token tracing.
func LogLevel(level int) Option {
	return func(cfg *Config) Option {
		prev := cfg.loglevel
		cfg.loglevel = level
		return LogLevel(prev)
	}
}

func (cfg *Config) logf(format string, v ...interface{}) {
	if cfg.logger != nil && cfg.loglevel > 0 {
		cfg.logger.Printf(format, v...)
	}
}

func (cfg *Config) debugf(format string, v ...interface{}) {
	if cfg.logger != nil && cfg.loglevel > 2 {
		cfg.logger.Printf(format, v...)
	}
}
