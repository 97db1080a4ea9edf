// Package pkg provides shared utilities for jolt.
package pkg

import (
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// FileSpill buffers a stream of items of type T in a disk-backed scratch
// file, keeping run memory independent of how many items accumulate.
type FileSpill[T any] interface {
	Len() uint64
	Path() string
	Append(item T) error
	Range(f func(index uint64, item T) error) error
	Close() error
}

type fileSpill[T any] struct {
	path    string
	file    *os.File
	encoder *gob.Encoder
	mu      sync.Mutex
	length  uint64
}

// NewFileSpill creates a FileSpill backed by a temp file named after pattern.
func NewFileSpill[T any](pattern string) (FileSpill[T], error) {
	file, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, fmt.Errorf("create spill file: %w", err)
	}

	slog.Debug("created spill file", "path", file.Name())

	return &fileSpill[T]{
		path:    file.Name(),
		file:    file,
		encoder: gob.NewEncoder(file),
	}, nil
}

// Append encodes one item at the end of the spill.
func (f *fileSpill[T]) Append(item T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.encoder.Encode(item); err != nil {
		return fmt.Errorf("encode spill item %d: %w", f.length, err)
	}

	f.length++

	return nil
}

// Len returns the number of buffered items.
func (f *fileSpill[T]) Len() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.length
}

// Path returns the location of the backing file.
func (f *fileSpill[T]) Path() string {
	return f.path
}

// Range replays every buffered item in append order. Stops at the first
// callback error.
func (f *fileSpill[T]) Range(fn func(index uint64, item T) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("open spill file: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("failed to close spill file", "path", f.path, "error", err)
		}
	}()

	decoder := gob.NewDecoder(file)

	var item T

	for i := uint64(0); i < f.length; i++ {
		if err := decoder.Decode(&item); err != nil {
			return fmt.Errorf("decode spill item %d: %w", i, err)
		}

		if err := fn(i, item); err != nil {
			return err
		}
	}

	return nil
}

// Close releases and removes the backing file.
func (f *fileSpill[T]) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}

	if err := f.file.Close(); err != nil {
		return fmt.Errorf("close spill file: %w", err)
	}

	f.file = nil

	if err := os.Remove(f.path); err != nil {
		slog.Warn("failed to remove spill file", "path", f.path, "error", err)
	}

	return nil
}
