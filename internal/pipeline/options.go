package pipeline

// Default buffer sizes, used when neither options nor processor hints
// supply them.
const (
	DefaultLookBehind = 512
	DefaultLookAhead  = 2048
)

// Option is a functional option for configuring a Pipeline.
type Option func(*Pipeline)

// WithLookBehind sets the lookbehind window size in bytes.
func WithLookBehind(n int) Option {
	return func(p *Pipeline) {
		p.lookBehind = n
		p.sizesSet = true
	}
}

// WithLookAhead sets the lookahead window size in bytes.
func WithLookAhead(n int) Option {
	return func(p *Pipeline) {
		p.lookAhead = n
		p.sizesSet = true
	}
}

// WithEncoding sets the input encoding. The default is "utf-8".
func WithEncoding(name string) Option {
	return func(p *Pipeline) {
		if name != "" {
			p.encoding = name
		}
	}
}

// WithAutoRefill controls whether the loop tops the buffer up from the
// source between iterations. When disabled, only the initial fill runs
// and processing ends when the buffered data is consumed.
func WithAutoRefill(enabled bool) Option {
	return func(p *Pipeline) {
		p.autoRefill = enabled
	}
}

// WithRefillThreshold overrides the refill threshold. The default is
// half the lookahead size.
func WithRefillThreshold(n int) Option {
	return func(p *Pipeline) {
		p.refillThreshold = n
		p.thresholdSet = true
	}
}

// WithLogger sets the logger used for per-position processing errors.
func WithLogger(l Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}
