package repository

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithSeed changes the priority hash seed. Different seeds give different
// tree shapes for the same content; queries are unaffected.
func WithSeed(seed uint64) Option {
	return func(s *TreapStore) {
		s.seed = seed
	}
}
