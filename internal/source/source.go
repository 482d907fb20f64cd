// Package source resolves the file reference given on the command line into
// the identifier passed to read_parquet.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Kind is where the bytes of a source live
type Kind int

const (
	Local Kind = iota
	Remote
	Buffer
)

func (k Kind) String() string {
	switch k {
	case Remote:
		return "remote"
	case Buffer:
		return "buffer"
	default:
		return "local"
	}
}

// ErrEmpty is returned for an empty reference
var ErrEmpty = errors.New("no source given")

var remoteSchemes = []string{"http://", "https://", "s3://", "s3a://", "gs://", "gcs://", "r2://", "hf://", "az://", "abfss://"}

// Source is a resolved file reference
type Source struct {
	Ref  string // identifier for read_parquet
	Kind Kind
	Name string // shown to the user

	cleanup func() error
}

// IsRemote reports whether the engine needs the httpfs extension
func (s Source) IsRemote() bool {
	return s.Kind == Remote
}

// IsGlob reports whether Ref matches several files
func (s Source) IsGlob() bool {
	return strings.ContainsAny(s.Ref, "*?[")
}

// Close releases a buffered source
func (s Source) Close() error {
	if s.cleanup == nil {
		return nil
	}
	return s.cleanup()
}

// Resolve classifies ref as a remote URL or a local path. Local paths are
// made absolute and must exist unless they are globs.
func Resolve(ref string) (Source, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Source{}, ErrEmpty
	}

	lower := strings.ToLower(ref)
	for _, scheme := range remoteSchemes {
		if strings.HasPrefix(lower, scheme) {
			return Source{Ref: ref, Kind: Remote, Name: ref}, nil
		}
	}

	path := strings.TrimPrefix(ref, "file://")
	abs, err := filepath.Abs(path)
	if err != nil {
		return Source{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	src := Source{Ref: abs, Kind: Local, Name: path}
	if src.IsGlob() {
		return src, nil
	}

	info, err := os.Stat(abs)
	if err != nil {
		return Source{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if info.IsDir() {
		// a directory of part files, as written by Spark and friends
		src.Ref = filepath.Join(abs, "*.parquet")
	}
	return src, nil
}

// FromReader buffers r into a temporary file under dir (the system temp dir
// if empty) so the engine can read it. Close removes the file.
func FromReader(r io.Reader, dir string) (Source, error) {
	f, err := os.CreateTemp(dir, "parqview-*.parquet")
	if err != nil {
		return Source{}, fmt.Errorf("failed to create buffer: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return Source{}, fmt.Errorf("failed to buffer input: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return Source{}, fmt.Errorf("failed to buffer input: %w", err)
	}

	name := f.Name()
	return Source{
		Ref:     name,
		Kind:    Buffer,
		Name:    "<stdin>",
		cleanup: func() error { return os.Remove(name) },
	}, nil
}
