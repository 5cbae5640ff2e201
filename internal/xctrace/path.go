package xctrace

import (
	"fmt"
	"strconv"
	"strings"
)

// Path selects elements within a row by tag. Index is the 1-based position
// among same-tag descendants of the row; zero means the first element that
// resolves.
type Path struct {
	Tag   string
	Index int
}

// Tag returns a path matching the first resolvable element with the tag.
func Tag(tag string) Path {
	return Path{Tag: tag}
}

// Nth returns a path matching the n-th (1-based) element with the tag.
func Nth(tag string, n int) Path {
	return Path{Tag: tag, Index: n}
}

// ParsePath accepts "tag", ".//tag" and ".//tag[n]".
func ParsePath(s string) (Path, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), ".//")
	if s == "" {
		return Path{}, fmt.Errorf("empty element path")
	}

	tag, rest, indexed := strings.Cut(s, "[")
	if !indexed {
		return Path{Tag: tag}, nil
	}
	if !strings.HasSuffix(rest, "]") || tag == "" {
		return Path{}, fmt.Errorf("malformed element path %q", s)
	}
	n, err := strconv.Atoi(strings.TrimSuffix(rest, "]"))
	if err != nil || n < 1 {
		return Path{}, fmt.Errorf("invalid index in element path %q", s)
	}
	return Path{Tag: tag, Index: n}, nil
}

func (p Path) String() string {
	if p.Index > 0 {
		return fmt.Sprintf(".//%s[%d]", p.Tag, p.Index)
	}
	return ".//" + p.Tag
}
