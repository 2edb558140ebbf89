// Package pathguard confines caller-supplied relative paths to a
// configured set of root directories.
//
// The guarantee is purely lexical: a resolved path is always a cleaned
// descendant of (or equal to) one of the configured roots, judged on
// the path string alone. The filesystem is never consulted, so the
// guard does not detect symlinks inside an accepted root that point
// elsewhere. Callers that need symlink containment must enforce it
// separately.
package pathguard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// InvalidInputError indicates caller misuse: the supplied path was
// absolute or otherwise not an acceptable relative path.
type InvalidInputError struct {
	Raw    string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Raw, e.Reason)
}

// AccessDeniedError indicates the path resolved outside every
// configured root. The roots are caller-provided configuration, so
// naming them in the error leaks nothing and makes the rejection
// diagnosable.
type AccessDeniedError struct {
	Path  string
	Roots []string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: path %q resolves outside the allowed roots [%s]",
		e.Path, strings.Join(e.Roots, ", "))
}

// Guard holds the root set. The zero value has no configured roots and
// falls back to the process working directory at resolve time.
type Guard struct {
	mu    sync.RWMutex
	roots []string
}

// New returns a Guard configured with the given roots.
func New(roots ...string) *Guard {
	g := &Guard{}
	g.Configure(roots)
	return g
}

// Configure replaces the root set. Each entry is normalised to an
// absolute, cleaned form; blank entries are dropped. An empty (or
// all-blank) list means "fall back to the current working directory",
// evaluated lazily on each Resolve call so that unconfigured behaviour
// tracks the live working directory.
func (g *Guard) Configure(roots []string) {
	normalised := make([]string, 0, len(roots))
	for _, r := range roots {
		if strings.TrimSpace(r) == "" {
			continue
		}
		abs, err := filepath.Abs(r)
		if err != nil {
			// Getwd failed; keep the cleaned form rather than dropping
			// a configured root on the floor.
			abs = filepath.Clean(r)
		}
		normalised = append(normalised, abs)
	}

	g.mu.Lock()
	g.roots = normalised
	g.mu.Unlock()
}

// Roots returns the effective root set: a copy of the configured roots,
// or the current working directory when none are configured.
func (g *Guard) Roots() []string {
	g.mu.RLock()
	configured := g.roots
	g.mu.RUnlock()

	if len(configured) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return nil
		}
		return []string{cwd}
	}

	out := make([]string, len(configured))
	copy(out, configured)
	return out
}

// Resolve turns a caller-supplied relative path into an absolute path
// that is guaranteed to lie within one of the configured roots.
//
// Absolute input (including Windows drive-letter and UNC forms,
// regardless of the platform we run on) fails with InvalidInputError.
// Input that normalises outside every root fails with
// AccessDeniedError. The first root that admits the candidate wins;
// root order is the order given to Configure.
func (g *Guard) Resolve(raw string) (string, error) {
	if reason, abs := looksAbsolute(raw); abs {
		return "", &InvalidInputError{Raw: raw, Reason: reason}
	}

	// Collapse "." and ".." segments lexically. Clean("") yields ".",
	// so an empty input resolves to the first root itself.
	cleaned := filepath.Clean(raw)

	roots := g.Roots()
	if len(roots) == 0 {
		return "", &AccessDeniedError{Path: raw, Roots: nil}
	}

	for _, root := range roots {
		candidate := filepath.Join(root, cleaned)
		if withinRoot(candidate, root) {
			return candidate, nil
		}
	}

	return "", &AccessDeniedError{Path: raw, Roots: roots}
}

// withinRoot reports whether candidate equals root or is a strict
// descendant of it. The separator check stops a sibling whose name
// merely has root as a string prefix (root "/data" vs "/data-evil")
// from being accepted.
func withinRoot(candidate, root string) bool {
	if candidate == root {
		return true
	}
	return strings.HasPrefix(candidate, root+string(filepath.Separator))
}

// looksAbsolute rejects every absolute-looking spelling, not just the
// current platform's: a leading slash or backslash, and drive-letter
// prefixes like "C:\" or "C:/". Relative input is the only accepted
// form, so being stricter than filepath.IsAbs costs nothing.
func looksAbsolute(p string) (string, bool) {
	if filepath.IsAbs(p) {
		return "absolute paths are not permitted", true
	}
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`) {
		return "absolute paths are not permitted", true
	}
	if len(p) >= 2 && p[1] == ':' && isASCIILetter(p[0]) {
		return "drive-letter paths are not permitted", true
	}
	return "", false
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

var (
	defaultGuard     *Guard
	defaultGuardOnce sync.Once
)

// Default returns the process-wide Guard shared by the MCP tool
// handlers. It starts unconfigured (working-directory fallback) until
// the server entrypoint calls Configure on it.
func Default() *Guard {
	defaultGuardOnce.Do(func() {
		defaultGuard = &Guard{}
	})
	return defaultGuard
}
