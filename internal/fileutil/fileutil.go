package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// renameFunc is swapped in tests to simulate cross-device failures.
var renameFunc = os.Rename

// CrossDeviceError reports a rename that crossed filesystems (EXDEV). The
// temp file always lives next to its target, so this means the target
// directory is a mount point that changed underneath the write.
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("rename %q -> %q crosses filesystems: %v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice reports whether err is a CrossDeviceError.
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// PathTypeConflictError reports a target path that exists with the wrong type.
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("path %q is a %s, want %s", e.Path, e.Got, e.Want)
}

// Rename wraps os.Rename and tags EXDEV failures.
func Rename(src, dst string) error {
	if err := renameFunc(src, dst); err != nil {
		if errors.Is(err, unix.EXDEV) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// WriteFileAtomic writes data to path through a hidden sibling temp file,
// fsyncs it, and renames it over the target. Parent directories are created.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir, name := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	if fi, err := os.Lstat(path); err == nil && fi.IsDir() {
		return &PathTypeConflictError{Path: path, Want: "file", Got: "directory"}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := Rename(tmpName, path); err != nil {
		return err
	}
	_ = syncDir(dir)
	return nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

// MkdirAllTracked creates dir and any missing parents, returning the
// directories it created, outermost first.
func MkdirAllTracked(dir string) ([]string, error) {
	dir = filepath.Clean(dir)
	var missing []string
	for cur := dir; ; {
		fi, err := os.Stat(cur)
		if err == nil {
			if !fi.IsDir() {
				return nil, &PathTypeConflictError{Path: cur, Want: "directory", Got: "file"}
			}
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		missing = append(missing, cur)
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	created := make([]string, 0, len(missing))
	for i := len(missing) - 1; i >= 0; i-- {
		if err := os.Mkdir(missing[i], 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
			return created, err
		}
		created = append(created, missing[i])
	}
	return created, nil
}

// CheckWritable verifies the calling user may create entries in dir. When
// dir does not exist yet the nearest existing ancestor is checked instead.
func CheckWritable(dir string) error {
	cur := filepath.Clean(dir)
	for {
		fi, err := os.Stat(cur)
		if err == nil {
			if !fi.IsDir() {
				return &PathTypeConflictError{Path: cur, Want: "directory", Got: "file"}
			}
			if err := unix.Access(cur, unix.W_OK|unix.X_OK); err != nil {
				return fmt.Errorf("directory %q is not writable: %w", cur, err)
			}
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return fmt.Errorf("no existing ancestor for %q", dir)
		}
		cur = parent
	}
}
