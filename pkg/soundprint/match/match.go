// Package match implements the histogram-voting matcher: given a query's
// hash list and an inverted index, it finds the best-aligned song and
// recovers the query's time offset within it.
package match

import (
	"math"
	"sort"

	"github.com/devrindt/soundprint/pkg/soundprint/index"
)

// Config controls offset quantization and candidate filtering.
type Config struct {
	BinWidth      float64 // tau, seconds, default 0.050
	MinMatches    int     // default 5
	ConfThreshold float64 // percent, default 15
}

// DefaultConfig returns the reference voting parameters.
func DefaultConfig() Config {
	return Config{
		BinWidth:      0.050,
		MinMatches:    5,
		ConfThreshold: 15,
	}
}

// QueryHash is the minimal shape the matcher needs from a generated
// fingerprint: its packed value and the absolute anchor time it was
// produced at within the query.
type QueryHash struct {
	Value      uint32
	AnchorTime float64
}

// Result is a single song candidate returned by Match, carrying enough
// information to report both identity and temporal alignment.
type Result struct {
	Found         bool
	SongID        int32
	Name          string
	TimeOffset    float64 // seconds: the query's position within the reference
	Confidence    float64 // percent, [0, 100]
	MatchedHashes int
	QueryHashes   int
	SearchMs      float64
}

// bin quantizes an offset into a multiple of tau, keyed on the rounded
// integer multiple to avoid float-key aliasing in the histogram map.
func bin(offset, tau float64) int64 {
	return int64(math.Round(offset / tau))
}

// Match votes every query hash against idx's posting lists, accumulates
// a per-song offset histogram, and returns candidates ordered by
// confidence descending. searchMs should be the elapsed wall-clock time
// of the whole query pipeline (computed by the caller, since this
// function is pure).
func Match(queryHashes []QueryHash, idx *index.Index, cfg Config, searchMs float64) []Result {
	histograms := make(map[int32]map[int64]int)
	songOrder := make([]int32, 0)

	for _, q := range queryHashes {
		for _, entry := range idx.Lookup(q.Value) {
			offset := entry.AnchorTime - q.AnchorTime
			b := bin(offset, cfg.BinWidth)

			hist, ok := histograms[entry.SongID]
			if !ok {
				hist = make(map[int64]int)
				histograms[entry.SongID] = hist
				songOrder = append(songOrder, entry.SongID)
			}
			hist[b]++
		}
	}

	totalQuery := len(queryHashes)
	var candidates []Result

	for _, songID := range songOrder {
		hist := histograms[songID]

		var bestBin int64
		bestCount := -1
		for _, b := range sortedKeys(hist) {
			if c := hist[b]; c > bestCount {
				bestCount = c
				bestBin = b
			}
		}

		confidence := 0.0
		if totalQuery > 0 {
			confidence = 100 * float64(bestCount) / float64(totalQuery)
		}
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 100 {
			confidence = 100
		}

		if bestCount < cfg.MinMatches || confidence < cfg.ConfThreshold {
			continue
		}

		meta, _ := idx.Metadata(songID)
		candidates = append(candidates, Result{
			Found:         true,
			SongID:        songID,
			Name:          meta.Name,
			TimeOffset:    float64(bestBin) * cfg.BinWidth,
			Confidence:    confidence,
			MatchedHashes: bestCount,
			QueryHashes:   totalQuery,
			SearchMs:      searchMs,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	return candidates
}

// Best returns the top candidate, or a not-found Result if none cleared
// the candidate thresholds.
func Best(queryHashes []QueryHash, idx *index.Index, cfg Config, searchMs float64) Result {
	results := Match(queryHashes, idx, cfg, searchMs)
	if len(results) == 0 {
		return Result{Found: false, QueryHashes: len(queryHashes), SearchMs: searchMs}
	}
	return results[0]
}

// TopN returns up to n candidates ordered by confidence descending.
func TopN(queryHashes []QueryHash, idx *index.Index, cfg Config, searchMs float64, n int) []Result {
	results := Match(queryHashes, idx, cfg, searchMs)
	if len(results) > n {
		results = results[:n]
	}
	return results
}

// sortedKeys returns a map's int64 keys in ascending order, giving the
// peak-bin scan a deterministic traversal so ties are broken the same
// way on every run.
func sortedKeys(m map[int64]int) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
