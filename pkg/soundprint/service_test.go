package soundprint

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

// syntheticTone builds a mono signal swept across the peak detector's
// default frequency band. A stationary multi-tone signal would repeat
// the same constellation pattern (and therefore the same fingerprints)
// at every offset, which defeats the voting matcher's ability to find a
// unique best alignment; sweeping the frequencies continuously gives
// every time window a distinct landmark pattern, as a real recording
// would.
func syntheticTone(seconds float64, sampleRate int) []float64 {
	n := int(seconds * float64(sampleRate))
	samples := make([]float64, n)

	const f0, f1 = 300.0, 3000.0
	sweepRate := (f1 - f0) / seconds

	for i := range samples {
		t := float64(i) / float64(sampleRate)
		phase := 2 * math.Pi * (f0*t + sweepRate*t*t/2)
		samples[i] = math.Sin(phase) + 0.5*math.Sin(phase*2)
	}
	return samples
}

func whiteNoise(seconds float64, sampleRate int, seed int64) []float64 {
	n := int(seconds * float64(sampleRate))
	r := rand.New(rand.NewSource(seed))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = r.Float64()*2 - 1
	}
	return samples
}

// S5: enrolling a song and querying with all of its own samples must
// return that song as best match with near-zero offset and high
// confidence.
func TestSelfMatch(t *testing.T) {
	const sampleRate = 44100
	svc := NewService()

	samples := syntheticTone(30, sampleRate)
	id, err := svc.Enroll("self-match-song", "self.wav", samples, sampleRate, 30)
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}

	results, err := svc.Query(samples, sampleRate, 5, 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one match")
	}

	best := results[0]
	if best.SongID != id {
		t.Fatalf("expected song id %d, got %d", id, best.SongID)
	}
	if math.Abs(best.TimeOffset) > svc.cfg.Match.BinWidth {
		t.Errorf("expected offset within one bin width of zero, got %v", best.TimeOffset)
	}
	if best.Confidence < 50 {
		t.Errorf("expected confidence >= 50, got %v", best.Confidence)
	}
}

// S6: querying a 10-18s fragment of an enrolled song must recover an
// offset near the fragment's start time, within 2*tau.
func TestFragmentMatch(t *testing.T) {
	const sampleRate = 44100
	svc := NewService()

	full := syntheticTone(30, sampleRate)
	id, err := svc.Enroll("fragment-song", "fragment.wav", full, sampleRate, 30)
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}

	start := 10.0
	end := 18.0
	fragment := full[int(start*sampleRate):int(end*sampleRate)]

	results, err := svc.Query(fragment, sampleRate, 5, 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one match")
	}

	best := results[0]
	if best.SongID != id {
		t.Fatalf("expected song id %d, got %d", id, best.SongID)
	}

	tau := svc.cfg.Match.BinWidth
	if math.Abs(best.TimeOffset-start) > 2*tau {
		t.Errorf("expected offset near %vs within 2*tau=%v, got %v", start, 2*tau, best.TimeOffset)
	}
}

// Property 9: white noise against a non-trivial corpus should not confidently
// match anything.
func TestNonMatchRejection(t *testing.T) {
	const sampleRate = 44100
	svc := NewService()

	if _, err := svc.Enroll("corpus-song", "corpus.wav", syntheticTone(20, sampleRate), sampleRate, 20); err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}

	noise := whiteNoise(10, sampleRate, 1)
	results, err := svc.Query(noise, sampleRate, 5, 0)
	if err != nil && err.(*Error).Kind != KindInsufficientData {
		t.Fatalf("unexpected error: %v", err)
	}
	if err == nil && len(results) > 0 && results[0].Confidence >= svc.cfg.Match.ConfThreshold {
		t.Errorf("expected white noise not to clear the confidence threshold, got %+v", results[0])
	}
}

func TestSaveLoadServiceRoundTrip(t *testing.T) {
	const sampleRate = 44100
	svc := NewService()

	samples := syntheticTone(15, sampleRate)
	if _, err := svc.Enroll("round-trip-song", "rt.wav", samples, sampleRate, 15); err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}

	dir := t.TempDir()
	binPath := filepath.Join(dir, "db_index.bin")
	metaPath := filepath.Join(dir, "db_metadata.txt")

	if err := svc.Save(binPath, metaPath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(binPath); err != nil {
		t.Fatalf("expected index file to exist: %v", err)
	}

	fresh := NewService()
	if err := fresh.Load(binPath, metaPath); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	results, err := fresh.Query(samples, sampleRate, 1, 0)
	if err != nil {
		t.Fatalf("Query after load failed: %v", err)
	}
	if len(results) == 0 || results[0].Name != "round-trip-song" {
		t.Fatalf("expected reloaded index to recognize the enrolled song, got %+v", results)
	}
}
