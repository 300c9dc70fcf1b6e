package stream

const (
	// 640x480 bytes, roughly one frame of a VGA camera
	defaultChunkSize  = 640 * 480
	defaultBufferSize = 1024 * 1024

	minChunkSize = 4
)

type Config struct {
	// Number of bytes pulled from the underlying reader per step.
	ChunkSize int
	// Largest frame accepted, counted from the start marker up to the boundary.
	// A longer frame fails the stream with ErrFrameTooLarge, however the chunks
	// happen to fall. Never less than twice the chunk size.
	BufferSize int
}

func DefaultConfig() Config {
	return Config{
		ChunkSize:  defaultChunkSize,
		BufferSize: defaultBufferSize,
	}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.ChunkSize < minChunkSize {
		cfg.ChunkSize = minChunkSize
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.BufferSize < 2*cfg.ChunkSize {
		cfg.BufferSize = 2 * cfg.ChunkSize
	}
	return cfg
}
