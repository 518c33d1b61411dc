package translator

// Config controls translation behavior.
type Config struct {
	// NativeMerge emits MERGE statements unchanged and lets the engine
	// execute them. When false, a MERGE is decomposed into UPDATE, DELETE
	// and INSERT statements instead.
	NativeMerge bool

	// StageDir is the local directory backing @stage references in COPY
	// statements. Empty means the built-in default.
	StageDir string

	// CacheSize bounds the rewrite cache (number of entries). Zero disables
	// caching.
	CacheSize int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		NativeMerge: true,
		CacheSize:   1024,
	}
}
