package fingerprint

import "testing"

// S2: frame [0,0,1,0,5,0,3,0,0] with radius 1 should yield local maxima
// at bins 2, 4, 6; an adaptive p75 threshold should retain only bin 4.
func TestDetectPeaksSyntheticFrame(t *testing.T) {
	s := &Spectrogram{
		Frames:         [][]float64{{0, 0, 1, 0, 5, 0, 3, 0, 0}},
		FreqResolution: 1,
		TimeResolution: 1,
		SampleRate:     100,
		WindowSize:     18,
	}

	cfg := PeakConfig{
		Radius:        1,
		Mode:          ThresholdFixed,
		FixedThresh:   0,
		PeaksPerFrame: 10,
		FreqMin:       0,
		FreqMax:       100,
		MagMin:        0,
	}

	peaks := DetectPeaks(s, cfg)
	if len(peaks) != 3 {
		t.Fatalf("expected 3 peaks, got %d: %+v", len(peaks), peaks)
	}
	wantBins := []int{2, 4, 6}
	for i, p := range peaks {
		if p.BinIdx != wantBins[i] {
			t.Errorf("peak %d: bin = %d, want %d", i, p.BinIdx, wantBins[i])
		}
	}

	cfg.Mode = ThresholdAdaptive
	cfg.Percentile = 75
	peaks = DetectPeaks(s, cfg)
	if len(peaks) != 1 || peaks[0].BinIdx != 4 {
		t.Fatalf("adaptive p75 expected only bin 4, got %+v", peaks)
	}
}

func TestDetectPeaksCapsPerFrame(t *testing.T) {
	mags := make([]float64, 20)
	for i := range mags {
		if i%2 == 0 {
			mags[i] = float64(i + 1)
		}
	}
	s := &Spectrogram{Frames: [][]float64{mags}, FreqResolution: 1, TimeResolution: 1}
	cfg := PeakConfig{Radius: 1, Mode: ThresholdFixed, FixedThresh: 0, PeaksPerFrame: 2, FreqMin: 0, FreqMax: 1000, MagMin: 0}

	peaks := DetectPeaks(s, cfg)
	if len(peaks) > cfg.PeaksPerFrame {
		t.Fatalf("expected at most %d peaks, got %d", cfg.PeaksPerFrame, len(peaks))
	}
}

func TestDetectPeaksExcludesEdgeBins(t *testing.T) {
	mags := []float64{10, 0, 0, 0, 10}
	s := &Spectrogram{Frames: [][]float64{mags}, FreqResolution: 1, TimeResolution: 1}
	cfg := PeakConfig{Radius: 1, Mode: ThresholdFixed, FixedThresh: 0, PeaksPerFrame: 10, FreqMin: 0, FreqMax: 1000, MagMin: 0}

	peaks := DetectPeaks(s, cfg)
	for _, p := range peaks {
		if p.BinIdx == 0 || p.BinIdx == len(mags)-1 {
			t.Errorf("edge bin %d should have been excluded", p.BinIdx)
		}
	}
}
