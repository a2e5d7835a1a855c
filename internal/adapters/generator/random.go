package generator

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
)

// RandomFileGenerator implements the FileGenerator port with crypto/rand
type RandomFileGenerator struct {
	source io.Reader
}

// NewRandomFileGenerator creates a generator reading from the OS randomness source
func NewRandomFileGenerator() *RandomFileGenerator {
	return &RandomFileGenerator{source: rand.Reader}
}

// NewGeneratorFromReader creates a generator with a custom byte source
func NewGeneratorFromReader(source io.Reader) *RandomFileGenerator {
	return &RandomFileGenerator{source: source}
}

// Generate writes exactly size bytes to path, truncating any existing file
func (g *RandomFileGenerator) Generate(ctx context.Context, path string, size int64) error {
	if size < 0 {
		return fmt.Errorf("invalid file size: %d", size)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	written, err := io.CopyN(f, g.source, size)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to write random data to %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	if written != size {
		return fmt.Errorf("short write to %s: %d of %d bytes", path, written, size)
	}

	return nil
}
