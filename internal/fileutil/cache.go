package fileutil

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Codec reads and writes one cached value.
type Codec[T any] struct {
	Decode func(io.Reader) (T, error)
	Encode func(io.Writer, T) error
}

// LoadOrBuild returns the value cached at path when the file exists, and
// otherwise computes it with build and persists it atomically. A missing
// file is never an error; a present but unreadable file is. The second
// return value reports whether the value came from disk.
//
// Concurrent readers of a finished file are safe. Concurrent builders of
// the same path race on the final rename and must be serialised by the
// caller.
func LoadOrBuild[T any](path string, codec Codec[T], build func() (T, error)) (T, bool, error) {
	var zero T
	if path != "" {
		v, err := Load(path, codec.Decode)
		switch {
		case err == nil:
			return v, true, nil
		case !errors.Is(err, fs.ErrNotExist):
			return zero, false, err
		}
	}

	v, err := build()
	if err != nil {
		return zero, false, err
	}
	if path == "" {
		return v, false, nil
	}
	if err := WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		return codec.Encode(w, v)
	}); err != nil {
		return zero, false, err
	}
	return v, false, nil
}

// Load decodes the file at path. A missing file yields an error wrapping
// fs.ErrNotExist.
func Load[T any](path string, decode func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer f.Close()
	v, err := decode(bufio.NewReaderSize(f, 1<<20))
	if err != nil {
		return zero, fmt.Errorf("decode %s: %w", path, err)
	}
	return v, nil
}
