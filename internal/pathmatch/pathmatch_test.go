package pathmatch

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestIsUnder(t *testing.T) {
	m := New()
	sep := string(filepath.Separator)
	join := func(parts ...string) string { return sep + filepath.Join(parts...) }

	cases := []struct {
		child  string
		parent string
		want   bool
	}{
		{join("data", "docs", "a.txt"), join("data", "docs"), true},
		{join("data", "docs"), join("data", "docs"), true},
		{join("data", "docs", "sub", "deep", "x"), join("data", "docs"), true},
		{join("data", "docs2"), join("data", "docs"), false},
		{join("data"), join("data", "docs"), false},
		{join("other", "docs"), join("data", "docs"), false},
		{join("data", "docs", "..", "secret"), join("data", "docs"), false},
	}
	for _, c := range cases {
		if got := m.IsUnder(c.child, c.parent); got != c.want {
			t.Fatalf("IsUnder(%q, %q)=%v want %v", c.child, c.parent, got, c.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	m := New()
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	properties.Property("normalize(normalize(p)) == normalize(p)", prop.ForAll(
		func(segments []string) bool {
			p := string(filepath.Separator) + filepath.Join(segments...)
			once := m.Normalize(p)
			return m.Normalize(once) == once
		},
		gen.SliceOf(gen.RegexMatch(`[A-Za-z0-9._ -]{1,8}`)),
	))
	properties.Property("a path is always under its own parent directory", prop.ForAll(
		func(segments []string) bool {
			if len(segments) == 0 {
				return true
			}
			p := string(filepath.Separator) + filepath.Join(segments...)
			return m.IsUnder(p, filepath.Dir(p))
		},
		gen.SliceOf(gen.RegexMatch(`[A-Za-z0-9._-]{1,8}`)),
	))
	properties.TestingRun(t)
}

func TestNormalizeCacheBounded(t *testing.T) {
	m := New()
	for i := 0; i < cacheLimit*2; i++ {
		m.Normalize(filepath.Join("/tmp", "dir", fmt.Sprintf("%d.bin", i)))
	}
	m.mu.Lock()
	size := len(m.cache)
	m.mu.Unlock()
	if size > cacheLimit {
		t.Fatalf("cache grew past limit: %d entries", size)
	}
}
