package walker

import (
	"os"
	"path/filepath"
	"testing"

	"zipvault/internal/pathmatch"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func collect(t *testing.T, w *Walker, roots, excluded []string) []Entry {
	t.Helper()
	var entries []Entry
	for entry := range w.Walk(roots, excluded) {
		entries = append(entries, entry)
	}
	return entries
}

func TestScanTotals(t *testing.T) {
	root := filepath.Join(t.TempDir(), "docs")
	writeFile(t, filepath.Join(root, "a.txt"), "0123456789")
	writeFile(t, filepath.Join(root, "b.txt"), "01234567890123456789")

	w := New(pathmatch.New())
	totals := w.ScanTotals([]string{root}, nil)
	if totals.Files != 2 || totals.Bytes != 30 {
		t.Fatalf("totals = %+v, want {2 30}", totals)
	}
}

func TestScanTotalsPrunesExcluded(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data")
	writeFile(t, filepath.Join(root, "keep.txt"), "kept")
	writeFile(t, filepath.Join(root, "cache", "blob.bin"), "excluded bytes")

	w := New(pathmatch.New())
	totals := w.ScanTotals([]string{root}, []string{filepath.Join(root, "cache")})
	if totals.Files != 1 || totals.Bytes != 4 {
		t.Fatalf("totals = %+v, want {1 4}", totals)
	}
}

func TestWalkYieldsRootFirst(t *testing.T) {
	root := filepath.Join(t.TempDir(), "docs")
	writeFile(t, filepath.Join(root, "a.txt"), "x")

	w := New(pathmatch.New())
	entries := collect(t, w, []string{root}, nil)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(entries), entries)
	}
	if entries[0].Path != root || !entries[0].Dir {
		t.Fatalf("first entry should be the root directory, got %+v", entries[0])
	}
	if entries[1].Path != filepath.Join(root, "a.txt") || entries[1].Dir {
		t.Fatalf("second entry should be the file, got %+v", entries[1])
	}
}

func TestWalkNeverYieldsExcluded(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data")
	writeFile(t, filepath.Join(root, "keep.txt"), "k")
	writeFile(t, filepath.Join(root, "node_modules", "dep", "index.js"), "j")
	writeFile(t, filepath.Join(root, "src", "main.go"), "m")
	excluded := []string{filepath.Join(root, "node_modules")}

	matcher := pathmatch.New()
	w := New(matcher)
	entries := collect(t, w, []string{root}, excluded)

	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		seen[entry.Path] = true
		for _, ex := range excluded {
			if matcher.IsUnder(entry.Path, ex) {
				t.Fatalf("walk yielded excluded path %s", entry.Path)
			}
		}
	}
	for _, want := range []string{
		root,
		filepath.Join(root, "keep.txt"),
		filepath.Join(root, "src"),
		filepath.Join(root, "src", "main.go"),
	} {
		if !seen[want] {
			t.Fatalf("walk missed %s; got %v", want, entries)
		}
	}
}

func TestWalkEmptyDirectoryPreserved(t *testing.T) {
	root := filepath.Join(t.TempDir(), "tree")
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	w := New(pathmatch.New())
	entries := collect(t, w, []string{root}, nil)
	if len(entries) != 2 || !entries[1].Dir || entries[1].Path != filepath.Join(root, "empty") {
		t.Fatalf("expected root plus empty dir entry, got %v", entries)
	}
}

func TestWalkIsReentrant(t *testing.T) {
	root := filepath.Join(t.TempDir(), "docs")
	writeFile(t, filepath.Join(root, "a.txt"), "x")
	writeFile(t, filepath.Join(root, "b.txt"), "y")

	w := New(pathmatch.New())
	seq := w.Walk([]string{root}, nil)

	var first, second []string
	for entry := range seq {
		first = append(first, entry.Path)
	}
	for entry := range seq {
		second = append(second, entry.Path)
	}
	if len(first) != len(second) {
		t.Fatalf("re-iteration differs: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("re-iteration differs at %d: %s vs %s", i, first[i], second[i])
		}
	}
}

func TestWalkEarlyStop(t *testing.T) {
	root := filepath.Join(t.TempDir(), "docs")
	writeFile(t, filepath.Join(root, "a.txt"), "x")
	writeFile(t, filepath.Join(root, "b.txt"), "y")

	w := New(pathmatch.New())
	count := 0
	for range w.Walk([]string{root}, nil) {
		count++
		if count == 1 {
			break
		}
	}
	if count != 1 {
		t.Fatalf("break did not stop the sequence, saw %d entries", count)
	}
}

func TestWalkMultipleRoots(t *testing.T) {
	base := t.TempDir()
	docs := filepath.Join(base, "docs")
	pics := filepath.Join(base, "pics")
	writeFile(t, filepath.Join(docs, "a.txt"), "a")
	writeFile(t, filepath.Join(pics, "p.jpg"), "p")

	w := New(pathmatch.New())
	entries := collect(t, w, []string{docs, pics}, nil)
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %v", entries)
	}
	if entries[0].Path != docs || entries[2].Path != pics {
		t.Fatalf("roots not yielded in order: %v", entries)
	}
}
