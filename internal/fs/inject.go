package fs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrInjected is returned by a triggered fault that carries no Err.
var ErrInjected = errors.New("fs: injected fault")

// Op selects the file operations a Fault fails.
type Op uint8

const (
	OpOpen Op = 1 << iota
	OpWrite
	OpSync
	OpClose
	OpRename
)

// Fault describes how matching files misbehave.
type Fault struct {
	On Op
	// AfterBytes lets writes through until the file has received this many
	// bytes. A write that would cross the limit fails whole.
	AfterBytes int64
	Err        error
}

func (f Fault) has(op Op) bool { return f.On&op != 0 }

func (f Fault) error() error {
	if f.Err != nil {
		return f.Err
	}
	return ErrInjected
}

type rule struct {
	pattern string
	fault   Fault
	hits    int
}

// Injector wraps a FileSystem and fails operations on files whose base name
// contains a registered pattern. The most recently added matching rule wins.
type Injector struct {
	base FileSystem

	mu    sync.Mutex
	rules []*rule
}

// NewInjector wraps base, or Default when base is nil.
func NewInjector(base FileSystem) *Injector {
	if base == nil {
		base = Default
	}
	return &Injector{base: base}
}

// Inject registers fault for pattern, replacing an earlier rule with the
// same pattern.
func (in *Injector) Inject(pattern string, fault Fault) {
	in.mu.Lock()
	defer in.mu.Unlock()
	for i, r := range in.rules {
		if r.pattern == pattern {
			in.rules = append(in.rules[:i], in.rules[i+1:]...)
			break
		}
	}
	in.rules = append(in.rules, &rule{pattern: pattern, fault: fault})
}

// Reset drops every rule.
func (in *Injector) Reset() {
	in.mu.Lock()
	in.rules = nil
	in.mu.Unlock()
}

// Hits reports how many times the rule for pattern fired.
func (in *Injector) Hits(pattern string) int {
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, r := range in.rules {
		if r.pattern == pattern {
			return r.hits
		}
	}
	return 0
}

func (in *Injector) lookup(name string) *rule {
	base := filepath.Base(name)
	in.mu.Lock()
	defer in.mu.Unlock()
	for i := len(in.rules) - 1; i >= 0; i-- {
		if strings.Contains(base, in.rules[i].pattern) {
			return in.rules[i]
		}
	}
	return nil
}

// trip reports the fault error when r fails op.
func (in *Injector) trip(r *rule, op Op) error {
	if r == nil || !r.fault.has(op) {
		return nil
	}
	in.mu.Lock()
	r.hits++
	in.mu.Unlock()
	return r.fault.error()
}

func (in *Injector) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	r := in.lookup(name)
	if err := in.trip(r, OpOpen); err != nil {
		return nil, err
	}
	f, err := in.base.OpenFile(name, flag, perm)
	if err != nil || r == nil {
		return f, err
	}
	return &injectedFile{File: f, in: in, r: r}, nil
}

func (in *Injector) Rename(oldpath, newpath string) error {
	if err := in.trip(in.lookup(newpath), OpRename); err != nil {
		return err
	}
	return in.base.Rename(oldpath, newpath)
}

func (in *Injector) Remove(name string) error              { return in.base.Remove(name) }
func (in *Injector) Stat(name string) (os.FileInfo, error) { return in.base.Stat(name) }
func (in *Injector) MkdirAll(path string, perm os.FileMode) error {
	return in.base.MkdirAll(path, perm)
}
func (in *Injector) ReadDir(name string) ([]os.DirEntry, error) { return in.base.ReadDir(name) }
func (in *Injector) Truncate(name string, size int64) error     { return in.base.Truncate(name, size) }

// injectedFile applies the rule captured at open time.
type injectedFile struct {
	File
	in      *Injector
	r       *rule
	written int64
}

func (f *injectedFile) Write(p []byte) (int, error) {
	if f.r.fault.has(OpWrite) && f.written+int64(len(p)) > f.r.fault.AfterBytes {
		return 0, f.in.trip(f.r, OpWrite)
	}
	n, err := f.File.Write(p)
	f.written += int64(n)
	return n, err
}

func (f *injectedFile) Sync() error {
	if err := f.in.trip(f.r, OpSync); err != nil {
		return err
	}
	return f.File.Sync()
}

// Close releases the handle even when the fault fires.
func (f *injectedFile) Close() error {
	cerr := f.File.Close()
	if err := f.in.trip(f.r, OpClose); err != nil {
		return err
	}
	return cerr
}
