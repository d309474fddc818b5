// Package xpath implements picox's backend-neutral path grammar and
// resolution algorithm (spec §4.5, §6): components are 1..NameMax
// bytes drawn from anything but '/' and NUL, joined by single
// slashes, with "." and ".." resolved against a current directory.
//
// Mirrors the C xpath_name/xpath_suffix/xpath_parent/xpath_stem helper
// set. Resolve does not use path.Clean: it walks the components itself
// so it can reject ".." past root and enforce the NameMax and MaxLen
// ceilings in the same pass.
package xpath

import (
	"strings"

	"github.com/maskedw/picox-sub001/xerr"
)

// NameMax bounds a single path component, mirroring XDirEnt's
// fixed-size name buffer (spec §3, §6).
const NameMax = 255

// MaxLen bounds a fully resolved path. The C original bounds this by
// the caller-supplied output buffer size; Go strings aren't buffer-
// bounded, so this constant exists purely to preserve the "overflow
// yields NAME_TOO_LONG" testable property from spec §4.5 step 4.
const MaxLen = 4096

// Resolve canonicalizes input against cwd per spec §4.5:
//  1. a relative input is joined onto cwd.
//  2. repeated "/" collapse; a trailing "/" is stripped unless the
//     result is root.
//  3. "." drops, ".." pops the previous component; ".." past root is
//     xerr.NoEntry.
//  4. a result exceeding MaxLen is xerr.NameTooLong.
//
// The returned path always starts with "/", never ends with "/" unless
// it is exactly "/", and contains no "." or ".." component.
func Resolve(cwd, input string) (string, error) {
	if input == "" {
		input = "."
	}

	var joined string
	if strings.HasPrefix(input, "/") {
		joined = input
	} else {
		if cwd == "" || !strings.HasPrefix(cwd, "/") {
			return "", xerr.Wrap(xerr.Invalid, "xpath.Resolve: cwd %q is not absolute", cwd)
		}
		joined = cwd + "/" + input
	}

	parts := strings.Split(joined, "/")
	stack := make([]string, 0, len(parts))
	for _, p := range parts {
		switch p {
		case "", ".":
			continue
		case "..":
			if len(stack) == 0 {
				return "", xerr.Wrap(xerr.NoEntry, "xpath.Resolve: %q escapes root", input)
			}
			stack = stack[:len(stack)-1]
		default:
			if len(p) > NameMax {
				return "", xerr.Wrap(xerr.NameTooLong, "xpath.Resolve: component %q exceeds NameMax", p)
			}
			stack = append(stack, p)
		}
	}

	out := "/" + strings.Join(stack, "/")
	if len(out) > MaxLen {
		return "", xerr.Wrap(xerr.NameTooLong, "xpath.Resolve: %q exceeds MaxLen", input)
	}
	return out, nil
}

// Top returns the first component of an absolute canonical path, or
// "" for root.
func Top(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return ""
	}
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		return trimmed[:i]
	}
	return trimmed
}

// Tail returns path with its first component removed, still absolute.
func Tail(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		return trimmed[i:]
	}
	return "/"
}

// Base returns the final component of path, matching xpath_name.
func Base(path string) string {
	trimmed := strings.TrimSuffix(path, "/")
	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// Dir returns path with its final component removed, matching
// xpath_parent. Dir("/") is "/".
func Dir(path string) string {
	trimmed := strings.TrimSuffix(path, "/")
	i := strings.LastIndexByte(trimmed, '/')
	if i <= 0 {
		return "/"
	}
	return trimmed[:i]
}

// Suffix returns the final component's extension including the dot, or
// "" if it has none, matching xpath_suffix.
func Suffix(path string) string {
	base := Base(path)
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		return base[i:]
	}
	return ""
}

// Split breaks an absolute canonical path into its components, e.g.
// "/foo/bar" -> ["foo", "bar"], and "/" -> nil. Backends walk a tree
// with this instead of re-deriving it from strings.Split directly.
func Split(path string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if i > start {
				out = append(out, path[start:i])
			}
			start = i + 1
		}
	}
	return out
}

// Stem returns the final component with its extension removed,
// matching xpath_stem.
func Stem(path string) string {
	base := Base(path)
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		return base[:i]
	}
	return base
}
