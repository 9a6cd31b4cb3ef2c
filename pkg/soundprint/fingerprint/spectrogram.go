package fingerprint

import "math"

// SpectrogramConfig controls window size, hop and windowing function used
// when computing a Spectrogram from raw samples.
type SpectrogramConfig struct {
	WindowSize   int  // N, must be a power of two
	HopSize      int  // H, 1 <= H <= WindowSize
	StartOffset  int  // first sample index to analyze
	ApplyHamming bool
}

// DefaultSpectrogramConfig returns the reference window/hop pair used
// throughout enrollment and querying.
func DefaultSpectrogramConfig() SpectrogramConfig {
	return SpectrogramConfig{
		WindowSize:   1024,
		HopSize:      512,
		StartOffset:  0,
		ApplyHamming: true,
	}
}

// Spectrogram is a sequence of magnitude frames produced by a sliding FFT
// window (STFT) over a mono sample stream. Every frame has the same
// length (WindowSize/2); magnitudes are non-negative.
type Spectrogram struct {
	Frames         [][]float64
	FreqResolution float64 // Hz per bin
	TimeResolution float64 // seconds per frame
	SampleRate     int
	WindowSize     int
}

// hammingWindow precomputes w[i] = 0.54 - 0.46*cos(2*pi*i/(n-1)) for an
// n-sample window.
func hammingWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// ComputeSpectrogram runs the STFT over samples and returns the resulting
// magnitude spectrogram. cfg.WindowSize must be a power of two and
// cfg.HopSize must be between 1 and WindowSize inclusive, otherwise
// ErrInvalidSize is returned.
func ComputeSpectrogram(samples []float64, sampleRate int, cfg SpectrogramConfig) (*Spectrogram, error) {
	n := cfg.WindowSize
	h := cfg.HopSize
	if !IsPowerOfTwo(n) {
		return nil, ErrInvalidSize
	}
	if h < 1 || h > n {
		return nil, ErrInvalidSize
	}

	var window []float64
	if cfg.ApplyHamming {
		window = hammingWindow(n)
	}

	var frames [][]float64
	buf := make([]Complex, n)

	for start := cfg.StartOffset; start+n <= len(samples); start += h {
		for i := 0; i < n; i++ {
			s := samples[start+i]
			if window != nil {
				s *= window[i]
			}
			buf[i] = Complex{Re: s}
		}

		if err := FFT(buf); err != nil {
			return nil, err
		}

		half := n / 2
		mags := make([]float64, half)
		for i := 0; i < half; i++ {
			mags[i] = buf[i].Magnitude()
		}
		frames = append(frames, mags)
	}

	return &Spectrogram{
		Frames:         frames,
		FreqResolution: float64(sampleRate) / float64(n),
		TimeResolution: float64(h) / float64(sampleRate),
		SampleRate:     sampleRate,
		WindowSize:     n,
	}, nil
}
