package soundprint

import (
	"fmt"

	"github.com/devrindt/soundprint/pkg/soundprint/fingerprint"
	"github.com/devrindt/soundprint/pkg/soundprint/index"
	"github.com/devrindt/soundprint/pkg/soundprint/match"
)

// Logger is the minimal structured-logging surface the orchestrator
// needs. pkg/logger.Logger satisfies it without modification.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// nopLogger discards everything; used when no logger is supplied.
type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// WithLogger attaches a logger to the service.
func WithLogger(l Logger) Option {
	return func(cfg *Config) { cfg.logger = l }
}

// Service runs the enrollment and query pipelines against a single
// in-memory index. All knobs carried in cfg must stay fixed across the
// index's lifetime — changing them after enrollment desynchronizes the
// hash layout and the voting bin width.
type Service struct {
	cfg   Config
	idx   *index.Index
	log   Logger
}

// NewService builds a Service over DefaultConfig with opts applied in
// order.
func NewService(opts ...Option) *Service {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	log := cfg.logger
	if log == nil {
		log = nopLogger{}
	}

	return &Service{cfg: cfg, idx: index.New(), log: log}
}

// Fingerprint runs Spectrogram -> PeakDetector -> HashGenerator over a
// mono sample stream and returns the resulting hash list plus the
// detected peaks they were built from.
func (s *Service) Fingerprint(samples []float64, sampleRate int) ([]fingerprint.Hash, []fingerprint.Peak, error) {
	spec, err := fingerprint.ComputeSpectrogram(samples, sampleRate, s.cfg.Spectrogram)
	if err != nil {
		return nil, nil, NewError(KindInvalidInput, "compute spectrogram", err)
	}

	peaks := fingerprint.DetectPeaks(spec, s.cfg.Peaks)
	hashes := fingerprint.GenerateHashes(peaks, s.cfg.Hash)

	return hashes, peaks, nil
}

// Enroll runs the fingerprinting pipeline over samples and inserts the
// result into the index under the given name/path/duration. It returns
// the assigned song id.
func (s *Service) Enroll(name, path string, samples []float64, sampleRate int, duration float64) (int32, error) {
	hashes, _, err := s.Fingerprint(samples, sampleRate)
	if err != nil {
		return 0, err
	}

	values := make([]uint32, len(hashes))
	times := make([]float64, len(hashes))
	for i, h := range hashes {
		values[i] = h.Value
		times[i] = h.AnchorTime
	}

	id := s.idx.AddSong(name, path, duration, values, times)
	s.log.Infof("enrolled %q as song %d (%d hashes)", name, id, len(hashes))
	return id, nil
}

// Query runs the fingerprinting pipeline over samples and matches the
// result against the index, returning up to topN ranked candidates. It
// returns KindInsufficientData if the query produced zero hashes.
func (s *Service) Query(samples []float64, sampleRate int, topN int, searchMs float64) ([]match.Result, error) {
	hashes, _, err := s.Fingerprint(samples, sampleRate)
	if err != nil {
		return nil, err
	}
	if len(hashes) == 0 {
		return nil, NewError(KindInsufficientData, "query produced zero hashes", nil)
	}

	queryHashes := make([]match.QueryHash, len(hashes))
	for i, h := range hashes {
		queryHashes[i] = match.QueryHash{Value: h.Value, AnchorTime: h.AnchorTime}
	}

	results := match.TopN(queryHashes, s.idx, s.cfg.Match, searchMs, topN)
	s.log.Infof("query produced %d hashes, %d candidate(s)", len(hashes), len(results))
	return results, nil
}

// Save persists the index and metadata table to disk as a unit.
func (s *Service) Save(binPath, metaPath string) error {
	if err := s.idx.SaveAll(binPath, metaPath); err != nil {
		return err
	}
	s.log.Infof("saved index to %s / %s", binPath, metaPath)
	return nil
}

// Load replaces the in-memory index with the contents of binPath and
// metaPath, failing if the two files disagree on the set of song ids.
func (s *Service) Load(binPath, metaPath string) error {
	if err := s.idx.LoadAll(binPath, metaPath); err != nil {
		return err
	}
	s.log.Infof("loaded index from %s / %s", binPath, metaPath)
	return nil
}

// ListSongs returns every song metadata record currently held, in
// ascending id order.
func (s *Service) ListSongs() []index.SongMeta {
	stats := s.idx.Stats()
	songs := make([]index.SongMeta, 0, stats.SongCount)
	for id := int32(1); len(songs) < stats.SongCount; id++ {
		if m, ok := s.idx.Metadata(id); ok {
			songs = append(songs, m)
		}
	}
	return songs
}

// Stats returns aggregate counters over the current index.
func (s *Service) Stats() index.Stats {
	return s.idx.Stats()
}

// SongByID returns the metadata record for id.
func (s *Service) SongByID(id int32) (index.SongMeta, bool) {
	return s.idx.Metadata(id)
}

// Describe returns a short human-readable summary of the index state,
// used by the CLI's --indexar summary.
func (s *Service) Describe() string {
	stats := s.idx.Stats()
	return fmt.Sprintf("%d song(s), %d distinct hash(es), %d posting(s)",
		stats.SongCount, stats.HashCount, stats.TotalPostings)
}
