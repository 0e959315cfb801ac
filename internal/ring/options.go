package ring

// Option is a functional option for configuring a Buffer.
type Option func(*Buffer)

// WithRefillThreshold overrides the refill threshold. The default is half
// the lookahead size. Values outside [0, lookAhead] are clamped.
func WithRefillThreshold(n int) Option {
	return func(b *Buffer) {
		if n < 0 {
			n = 0
		}
		if n > b.lookAhead {
			n = b.lookAhead
		}
		b.refillThreshold = n
	}
}
