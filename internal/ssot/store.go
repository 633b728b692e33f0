// Package ssot implements the JSON single-source-of-truth store (C1):
// atomic temp-file-then-rename writes, a per-path advisory lock held only
// across the in-process transform (never across subprocess calls).
// Timestamps are written as encoding/json renders time.Time (RFC 3339, in
// whatever zone the value carries); the store does not convert or
// normalize them on read or write.
package ssot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bagakit/bagakit-feat-task-harness/internal/harnesserr"
)

// pathLocks provides process-local mutual exclusion per path, in addition
// to the OS-level flock, so that two Mutate calls against the same path
// within this process serialize deterministically rather than racing on
// which one wins the flock.
var (
	pathLocksMu sync.Mutex
	pathLocks   = map[string]*sync.Mutex{}
)

func lockFor(path string) *sync.Mutex {
	pathLocksMu.Lock()
	defer pathLocksMu.Unlock()
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	m, ok := pathLocks[abs]
	if !ok {
		m = &sync.Mutex{}
		pathLocks[abs] = m
	}
	return m
}

// Load reads and JSON-decodes the document at path and returns it. A
// missing file is reported as ErrNotFound; malformed JSON as ErrCorrupt.
func Load[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", harnesserr.ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", harnesserr.ErrIOError, path, err)
	}
	var doc T
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", harnesserr.ErrCorrupt, path, err)
	}
	return &doc, nil
}

// Mutate loads the document at path (or starts from the zero value of T if
// missing and createIfMissing is true), applies transform, and writes the
// result back atomically. The path's advisory lock is held for the
// duration of the load-transform-write sequence and nothing else -
// subprocess calls (git, gate commands) must happen outside transform.
func Mutate[T any](path string, createIfMissing bool, transform func(*T) error) (*T, error) {
	mu := lockFor(path)
	mu.Lock()
	defer mu.Unlock()

	lockFile, err := acquireFileLock(path)
	if err != nil {
		return nil, err
	}
	defer lockFile.release()

	var doc T
	data, readErr := os.ReadFile(path)
	switch {
	case readErr == nil:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", harnesserr.ErrCorrupt, path, err)
		}
	case os.IsNotExist(readErr) && createIfMissing:
		// doc stays at zero value.
	case os.IsNotExist(readErr):
		return nil, fmt.Errorf("%w: %s", harnesserr.ErrNotFound, path)
	default:
		return nil, fmt.Errorf("%w: %s: %v", harnesserr.ErrIOError, path, readErr)
	}

	if err := transform(&doc); err != nil {
		return nil, err
	}

	if err := writeAtomic(path, doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// writeAtomic marshals doc as indented JSON with a trailing newline and
// writes it to path via a sibling temp file followed by os.Rename, so a
// crash mid-write never leaves a torn document behind.
func writeAtomic(path string, doc any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", harnesserr.ErrIOError, dir, err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", harnesserr.ErrIOError, path, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", harnesserr.ErrIOError, path, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %s: %v", harnesserr.ErrIOError, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %s: %v", harnesserr.ErrIOError, path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %s: %v", harnesserr.ErrIOError, path, err)
	}
	return nil
}

type fileLock struct {
	f *os.File
}

// acquireFileLock opens (creating if absent) a dotfile lock sibling to
// path and takes a blocking exclusive flock on it, so concurrent harness
// invocations against the same document serialize instead of corrupting it.
func acquireFileLock(path string) (*fileLock, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", harnesserr.ErrIOError, dir, err)
	}
	lockPath := path + ".lock"
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", harnesserr.ErrIOError, lockPath, err)
	}
	if err := flockExclusiveBlocking(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %v", harnesserr.ErrIOError, lockPath, err)
	}
	return &fileLock{f: f}, nil
}

func (l *fileLock) release() {
	flockUnlock(l.f)
	l.f.Close()
}
