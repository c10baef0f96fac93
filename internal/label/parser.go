package label

import (
	"fmt"
	"strings"
)

// Parse creates a Label by parsing its canonical string representation,
// resolving it relative to currentDir (a source-absolute directory such as
// "//base"). Accepted forms:
//
//	//dir:name      absolute
//	//dir           absolute, name defaults to the last path component
//	:name           relative to currentDir
//
// Any form may carry a "(//tcdir:tcname)" toolchain suffix.
func Parse(raw, currentDir string) (Label, error) {
	if raw == "" {
		return Label{}, fmt.Errorf("label cannot be empty")
	}

	body := raw
	var tc Label
	if i := strings.IndexByte(raw, '('); i >= 0 {
		if !strings.HasSuffix(raw, ")") {
			return Label{}, fmt.Errorf("unterminated toolchain suffix in label %q", raw)
		}
		body = raw[:i]
		tcRaw := raw[i+1 : len(raw)-1]
		var err error
		tc, err = Parse(tcRaw, currentDir)
		if err != nil {
			return Label{}, fmt.Errorf("invalid toolchain in label %q: %w", raw, err)
		}
		if tc.HasToolchain() {
			return Label{}, fmt.Errorf("toolchain label %q cannot itself have a toolchain", tcRaw)
		}
	}

	var dir, name string
	switch {
	case strings.HasPrefix(body, "//"):
		dir = body
		if i := strings.IndexByte(body, ':'); i >= 0 {
			dir, name = body[:i], body[i+1:]
		} else {
			// "//foo/bar" is shorthand for "//foo/bar:bar".
			if idx := strings.LastIndexByte(dir, '/'); idx >= 2 {
				name = dir[idx+1:]
			} else {
				name = strings.TrimPrefix(dir, "//")
			}
		}
	case strings.HasPrefix(body, ":"):
		if currentDir == "" {
			return Label{}, fmt.Errorf("relative label %q used without a current directory", raw)
		}
		dir = currentDir
		name = body[1:]
	default:
		return Label{}, fmt.Errorf("label %q must start with \"//\" or \":\"", raw)
	}

	dir = canonicalDir(dir)
	if name == "" {
		return Label{}, fmt.Errorf("label %q has no name", raw)
	}
	if strings.ContainsAny(name, "/:") {
		return Label{}, fmt.Errorf("invalid character in label name %q", name)
	}

	l := Label{Dir: dir, Name: name}
	if !tc.IsZero() {
		l = l.WithToolchain(tc)
	}
	return l, nil
}

// canonicalDir strips a trailing slash so "//foo/" and "//foo" compare equal.
// The root directory stays "//".
func canonicalDir(dir string) string {
	if len(dir) > 2 {
		dir = strings.TrimRight(dir, "/")
	}
	return dir
}
