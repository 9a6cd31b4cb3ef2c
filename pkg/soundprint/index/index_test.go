package index

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAddSongAssignsMonotonicIDs(t *testing.T) {
	idx := New()
	id1 := idx.AddSong("a", "a.wav", 10, []uint32{1, 2}, []float64{0, 1})
	id2 := idx.AddSong("b", "b.wav", 20, []uint32{2, 3}, []float64{0, 1})

	if id1 != 1 || id2 != 2 {
		t.Fatalf("expected ids 1,2; got %d,%d", id1, id2)
	}

	entries := idx.Lookup(2)
	if len(entries) != 2 {
		t.Fatalf("expected 2 postings for shared hash 2, got %d", len(entries))
	}
}

func TestLookupUnknownHash(t *testing.T) {
	idx := New()
	if e := idx.Lookup(999); e != nil {
		t.Fatalf("expected nil postings for unknown hash, got %v", e)
	}
}

// S4: round trip a two-song index through binary + metadata files.
func TestSaveLoadRoundTrip(t *testing.T) {
	idx := New()
	idx.AddSong("song-one", "one.wav", 10, []uint32{10, 20, 10}, []float64{0, 1, 2})
	idx.AddSong("song-two", "two.wav", 15, []uint32{20, 30}, []float64{0.5, 1.5})

	dir := t.TempDir()
	binPath := filepath.Join(dir, "db_index.bin")
	metaPath := filepath.Join(dir, "db_metadata.txt")

	if err := idx.SaveAll(binPath, metaPath); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}

	want := idx.Stats()

	loaded := New()
	if err := loaded.LoadAll(binPath, metaPath); err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	got := loaded.Stats()
	if got != want {
		t.Fatalf("stats mismatch after round trip: got %+v, want %+v", got, want)
	}

	for _, h := range []uint32{10, 20, 30} {
		if len(loaded.Lookup(h)) != len(idx.Lookup(h)) {
			t.Errorf("posting list for hash %d changed size across round trip", h)
		}
	}

	m, ok := loaded.Metadata(1)
	if !ok || m.Name != "song-one" || m.HashCount != 3 {
		t.Fatalf("unexpected metadata for song 1: %+v (ok=%v)", m, ok)
	}
}

func TestLoadAllRejectsInconsistentDatabase(t *testing.T) {
	idx := New()
	idx.AddSong("solo", "solo.wav", 5, []uint32{1}, []float64{0})

	dir := t.TempDir()
	binPath := filepath.Join(dir, "db_index.bin")
	metaPath := filepath.Join(dir, "db_metadata.txt")

	if err := idx.SaveBinary(binPath); err != nil {
		t.Fatalf("SaveBinary failed: %v", err)
	}
	// Write an empty metadata file: the index references song 1 but no
	// metadata describes it.
	if err := os.WriteFile(metaPath, []byte("[METADATA]\nnum_songs=0\nversion=1.0\n\n"), 0o644); err != nil {
		t.Fatalf("failed to write metadata stub: %v", err)
	}

	loaded := New()
	if err := loaded.LoadAll(binPath, metaPath); err == nil {
		t.Fatal("expected LoadAll to reject mismatched song id sets")
	}
}
