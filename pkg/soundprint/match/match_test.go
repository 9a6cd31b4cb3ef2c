package match

import (
	"testing"

	"github.com/devrindt/soundprint/pkg/soundprint/index"
)

func buildIndex() *index.Index {
	idx := index.New()
	// song 1: hashes at anchor times 5..10 seconds, all offset by +5s
	// relative to a query whose matching hashes sit at 0..5 seconds.
	idx.AddSong("song-one", "one.wav", 30, []uint32{1, 2, 3, 4, 5, 6}, []float64{5, 6, 7, 8, 9, 10})
	idx.AddSong("song-two", "two.wav", 30, []uint32{100}, []float64{0})
	return idx
}

func TestMatchVotesConsistentOffset(t *testing.T) {
	idx := buildIndex()
	queryHashes := []QueryHash{
		{Value: 1, AnchorTime: 0},
		{Value: 2, AnchorTime: 1},
		{Value: 3, AnchorTime: 2},
		{Value: 4, AnchorTime: 3},
		{Value: 5, AnchorTime: 4},
		{Value: 6, AnchorTime: 5},
	}

	cfg := DefaultConfig()
	cfg.MinMatches = 3
	cfg.ConfThreshold = 0

	result := Best(queryHashes, idx, cfg, 1.0)
	if !result.Found {
		t.Fatal("expected a match")
	}
	if result.SongID != 1 {
		t.Errorf("expected song 1, got %d", result.SongID)
	}
	if result.TimeOffset < 4.9 || result.TimeOffset > 5.1 {
		t.Errorf("expected offset near 5s, got %v", result.TimeOffset)
	}
	if result.MatchedHashes != 6 {
		t.Errorf("expected 6 matched hashes, got %d", result.MatchedHashes)
	}
}

func TestMatchRejectsBelowThreshold(t *testing.T) {
	idx := buildIndex()
	queryHashes := []QueryHash{{Value: 100, AnchorTime: 0}}

	cfg := DefaultConfig()
	result := Best(queryHashes, idx, cfg, 1.0)
	if result.Found {
		t.Fatalf("expected no match below MinMatches, got %+v", result)
	}
}

func TestMatchNoHashesIsNotFound(t *testing.T) {
	idx := index.New()
	result := Best(nil, idx, DefaultConfig(), 0)
	if result.Found {
		t.Fatal("expected not-found result against an empty index")
	}
}

func TestTopNOrdersByConfidenceDescending(t *testing.T) {
	idx := index.New()
	idx.AddSong("strong", "a.wav", 10, []uint32{1, 2, 3, 4, 5}, []float64{0, 0, 0, 0, 0})
	idx.AddSong("weak", "b.wav", 10, []uint32{1}, []float64{0})

	queryHashes := []QueryHash{
		{Value: 1, AnchorTime: 0},
		{Value: 2, AnchorTime: 0},
		{Value: 3, AnchorTime: 0},
		{Value: 4, AnchorTime: 0},
		{Value: 5, AnchorTime: 0},
	}

	cfg := DefaultConfig()
	cfg.MinMatches = 1
	cfg.ConfThreshold = 0

	results := TopN(queryHashes, idx, cfg, 0, 10)
	if len(results) < 2 {
		t.Fatalf("expected 2 candidates, got %d", len(results))
	}
	if results[0].Confidence < results[1].Confidence {
		t.Fatalf("results not ordered by confidence descending: %+v", results)
	}
}
