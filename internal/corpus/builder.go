package corpus

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	// DefaultSequence is the token sequence repeated to form the corpus.
	DefaultSequence = "a b c d"
	// DefaultRepetitions is how many times DefaultSequence is repeated.
	DefaultRepetitions = 1000
	// DefaultPath is where the training script looks for its corpus,
	// relative to its working directory.
	DefaultPath = "gutenberg/data/repeated_sequence.txt"

	tempPrefix = "pretrain-smoke-"
)

// ErrInvalidRepetitions is returned when the repetition count is not positive.
var ErrInvalidRepetitions = errors.New("repetitions must be positive")

// Content returns sequence concatenated with itself repetitions times.
// No delimiter is inserted between repetitions.
func Content(sequence string, repetitions int) (string, error) {
	if repetitions <= 0 {
		return "", fmt.Errorf("%w: got %d", ErrInvalidRepetitions, repetitions)
	}
	return strings.Repeat(sequence, repetitions), nil
}

// Builder writes synthetic corpora to a filesystem.
type Builder struct {
	fs afero.Fs
}

// NewBuilder creates a Builder on top of fs. A nil fs means the OS filesystem.
func NewBuilder(fs afero.Fs) *Builder {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Builder{fs: fs}
}

// Fs returns the filesystem the builder writes to.
func (b *Builder) Fs() afero.Fs {
	return b.fs
}

// Build writes the corpus to path, creating missing parent directories and
// overwriting any existing file.
func (b *Builder) Build(path, sequence string, repetitions int) error {
	content, err := Content(sequence, repetitions)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := b.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := afero.WriteFile(b.fs, path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write corpus %s: %w", path, err)
	}
	return nil
}

// TempCorpus is a corpus written under a private temporary directory.
// The caller must call Cleanup when done with it.
type TempCorpus struct {
	fs   afero.Fs
	dir  string
	path string
}

// Dir is the temporary root. Run the training script from here so the
// corpus is found at its conventional relative path.
func (c *TempCorpus) Dir() string { return c.dir }

// Path is the location of the corpus file inside Dir.
func (c *TempCorpus) Path() string { return c.path }

// Cleanup removes the temporary root and everything beneath it,
// including files the external process wrote there.
func (c *TempCorpus) Cleanup() error {
	if err := c.fs.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("failed to remove temp corpus %s: %w", c.dir, err)
	}
	return nil
}

// BuildTemp creates a temporary directory and builds the corpus at rel inside it.
func (b *Builder) BuildTemp(rel, sequence string, repetitions int) (*TempCorpus, error) {
	if filepath.IsAbs(rel) {
		return nil, fmt.Errorf("temp corpus path must be relative: %s", rel)
	}

	dir, err := afero.TempDir(b.fs, "", tempPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	tc := &TempCorpus{fs: b.fs, dir: dir, path: filepath.Join(dir, rel)}
	if err := b.Build(tc.path, sequence, repetitions); err != nil {
		_ = tc.Cleanup()
		return nil, err
	}
	return tc, nil
}
