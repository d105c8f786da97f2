package fileutil

import (
	"errors"
	"io/fs"
	"os"
)

// Sink writes item files atomically. It is the filesystem adapter behind the
// pipeline's output writer.
type Sink struct {
	Perm os.FileMode
}

// NewSink returns a sink writing files with mode 0644.
func NewSink() *Sink {
	return &Sink{Perm: 0o644}
}

// Write atomically replaces path with data.
func (s *Sink) Write(path string, data []byte) error {
	perm := s.Perm
	if perm == 0 {
		perm = 0o644
	}
	return WriteFileAtomic(path, data, perm)
}

// Exists reports whether a regular file is present at path.
func (s *Sink) Exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// Remove deletes path. A missing file is not an error.
func (s *Sink) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Rename moves src over dst.
func (s *Sink) Rename(src, dst string) error {
	return Rename(src, dst)
}

// MkdirAll creates path and reports the directories it created.
func (s *Sink) MkdirAll(path string) ([]string, error) {
	return MkdirAllTracked(path)
}
