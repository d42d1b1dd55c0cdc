// Package fsgate enforces the filesystem access policy: every file read for
// symbol extraction or snippet retrieval, and every artifact write, is checked
// against a set of allowed roots first.
package fsgate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrDenied is wrapped by every policy violation.
var ErrDenied = errors.New("access denied by filesystem policy")

// Gate checks paths against allowed read and write roots. A nil or
// unenforced gate allows everything.
type Gate struct {
	enforced   bool
	readRoots  []string
	writeRoots []string
}

// New builds an enforcing gate from the given roots. Roots are cleaned to
// absolute paths; relative roots resolve against the current directory.
func New(readRoots, writeRoots []string) (*Gate, error) {
	rr, err := absRoots(readRoots)
	if err != nil {
		return nil, err
	}
	wr, err := absRoots(writeRoots)
	if err != nil {
		return nil, err
	}
	return &Gate{enforced: true, readRoots: rr, writeRoots: wr}, nil
}

// Permissive returns a gate that allows every path.
func Permissive() *Gate {
	return &Gate{}
}

// Enforced reports whether the gate checks paths at all.
func (g *Gate) Enforced() bool {
	return g != nil && g.enforced
}

// ReadRoots returns the allowed read roots.
func (g *Gate) ReadRoots() []string {
	if g == nil {
		return nil
	}
	return g.readRoots
}

// WriteRoots returns the allowed write roots.
func (g *Gate) WriteRoots() []string {
	if g == nil {
		return nil
	}
	return g.writeRoots
}

// EnsureReadAllowed returns ErrDenied (wrapped) unless path is under an
// allowed read root.
func (g *Gate) EnsureReadAllowed(path string) error {
	return g.ensure(path, g.ReadRoots(), "read")
}

// EnsureWriteAllowed returns ErrDenied (wrapped) unless path is under an
// allowed write root.
func (g *Gate) EnsureWriteAllowed(path string) error {
	return g.ensure(path, g.WriteRoots(), "write")
}

// ReadFile checks the read policy, then reads the file.
func (g *Gate) ReadFile(path string) (string, error) {
	if err := g.EnsureReadAllowed(path); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}

func (g *Gate) ensure(path string, roots []string, op string) error {
	if !g.Enforced() {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	for _, root := range roots {
		if underRoot(abs, root) {
			return nil
		}
	}
	return fmt.Errorf("%s %s: %w", op, path, ErrDenied)
}

func underRoot(abs, root string) bool {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "..")
}

func absRoots(roots []string) ([]string, error) {
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("resolve root %s: %w", r, err)
		}
		out = append(out, abs)
	}
	return out, nil
}
