package fingerprint

import "sort"

// ThresholdMode selects how a frame's peak-retention threshold is derived.
type ThresholdMode int

const (
	// ThresholdFixed retains peaks at or above a fixed magnitude.
	ThresholdFixed ThresholdMode = iota
	// ThresholdAdaptive derives the threshold from a magnitude percentile
	// of the frame's local-maximum candidates.
	ThresholdAdaptive
)

// PeakConfig controls local-maximum detection, thresholding and the
// post-filter applied uniformly to enrollment and query peaks.
type PeakConfig struct {
	Radius        int // local-max neighbor radius, default 3
	Mode          ThresholdMode
	FixedThresh   float64 // used when Mode == ThresholdFixed
	Percentile    float64 // used when Mode == ThresholdAdaptive, default 75
	PeaksPerFrame int     // cap per frame, default 5
	FreqMin       float64 // post-filter, Hz
	FreqMax       float64
	MagMin        float64
}

// DefaultPeakConfig returns the reference constellation-map parameters.
func DefaultPeakConfig() PeakConfig {
	return PeakConfig{
		Radius:        3,
		Mode:          ThresholdAdaptive,
		FixedThresh:   0,
		Percentile:    75,
		PeaksPerFrame: 5,
		FreqMin:       100,
		FreqMax:       5000,
		MagMin:        0.15,
	}
}

// Peak is a single time-frequency landmark extracted from a spectrogram.
type Peak struct {
	Time      float64 // seconds
	Freq      float64 // Hz
	Magnitude float64
	FrameIdx  int
	BinIdx    int
}

// DetectPeaks runs the strict local-maximum search described by cfg over
// every frame of s and returns the surviving landmarks, post-filtered by
// frequency range and minimum magnitude. The returned slice is ordered by
// time ascending, then frequency ascending, then bin index — the order
// the hash generator requires.
func DetectPeaks(s *Spectrogram, cfg PeakConfig) []Peak {
	var peaks []Peak

	for frameIdx, mags := range s.Frames {
		candidates := localMaxima(mags, cfg.Radius)

		candidateMags := make([]float64, len(candidates))
		for i, bin := range candidates {
			candidateMags[i] = mags[bin]
		}
		threshold := frameThreshold(candidateMags, cfg)

		var framePeaks []Peak
		for _, bin := range candidates {
			if mags[bin] < threshold {
				continue
			}
			framePeaks = append(framePeaks, Peak{
				Time:      float64(frameIdx) * s.TimeResolution,
				Freq:      float64(bin) * s.FreqResolution,
				Magnitude: mags[bin],
				FrameIdx:  frameIdx,
				BinIdx:    bin,
			})
		}

		sort.SliceStable(framePeaks, func(i, j int) bool {
			return framePeaks[i].Magnitude > framePeaks[j].Magnitude
		})
		if len(framePeaks) > cfg.PeaksPerFrame {
			framePeaks = framePeaks[:cfg.PeaksPerFrame]
		}

		for _, p := range framePeaks {
			if p.Freq < cfg.FreqMin || p.Freq > cfg.FreqMax {
				continue
			}
			if p.Magnitude < cfg.MagMin {
				continue
			}
			peaks = append(peaks, p)
		}
	}

	sort.SliceStable(peaks, func(i, j int) bool {
		if peaks[i].Time != peaks[j].Time {
			return peaks[i].Time < peaks[j].Time
		}
		if peaks[i].Freq != peaks[j].Freq {
			return peaks[i].Freq < peaks[j].Freq
		}
		return peaks[i].BinIdx < peaks[j].BinIdx
	})

	return peaks
}

// localMaxima returns, in ascending bin order, every index i in
// [r, len(mags)-r) such that mags[i] strictly exceeds every neighbor
// within radius r. Ties are not peaks, keeping the constellation sparse.
func localMaxima(mags []float64, r int) []int {
	var idx []int
	n := len(mags)
	for i := r; i < n-r; i++ {
		isPeak := true
		for j := -r; j <= r; j++ {
			if j == 0 {
				continue
			}
			if mags[i] <= mags[i+j] {
				isPeak = false
				break
			}
		}
		if isPeak {
			idx = append(idx, i)
		}
	}
	return idx
}

// frameThreshold derives the magnitude a peak must meet or exceed in
// order to survive, per cfg.Mode.
func frameThreshold(mags []float64, cfg PeakConfig) float64 {
	if cfg.Mode == ThresholdFixed {
		return cfg.FixedThresh
	}

	sorted := append([]float64(nil), mags...)
	sort.Float64s(sorted)
	if len(sorted) == 0 {
		return 0
	}
	idx := int(cfg.Percentile / 100 * float64(len(sorted)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
