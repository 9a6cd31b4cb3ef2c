package fingerprint

import "math"

// HashConfig controls the combinatorial pairing window and the bit
// layout of the packed fingerprint. BitsF1 + BitsF2 + BitsDt must not
// exceed 32.
type HashConfig struct {
	FanoutWindowMs float64 // W_ms, max anchor-to-target time delta
	MaxTargets     int     // K, max targets emitted per anchor
	FreqMin        float64
	FreqMax        float64
	BitsF1         uint
	BitsF2         uint
	BitsDt         uint
}

// DefaultHashConfig returns the reference combinatorial-hashing layout:
// a 9/9/14 bit split fitting exactly into a 32-bit fingerprint.
func DefaultHashConfig() HashConfig {
	return HashConfig{
		FanoutWindowMs: 2000,
		MaxTargets:     5,
		FreqMin:        100,
		FreqMax:        5000,
		BitsF1:         9,
		BitsF2:         9,
		BitsDt:         14,
	}
}

// Hash is a single combinatorial fingerprint record: the packed value,
// the absolute time of the anchor peak that produced it, and the indices
// (into the originating peak list) of the anchor and target peaks.
type Hash struct {
	Value      uint32
	AnchorTime float64
	AnchorIdx  int
	TargetIdx  int
}

// GenerateHashes pairs each peak with up to cfg.MaxTargets near-future
// peaks within cfg.FanoutWindowMs and packs each pair into a fingerprint.
// peaks must already be sorted by time ascending (DetectPeaks guarantees
// this); peaks outside [FreqMin, FreqMax] are skipped as anchors and
// targets alike.
func GenerateHashes(peaks []Peak, cfg HashConfig) []Hash {
	var hashes []Hash
	windowSec := cfg.FanoutWindowMs / 1000

	for i, anchor := range peaks {
		if anchor.Freq < cfg.FreqMin || anchor.Freq > cfg.FreqMax {
			continue
		}

		targets := 0
		for j := i + 1; j < len(peaks) && targets < cfg.MaxTargets; j++ {
			target := peaks[j]
			if target.Time-anchor.Time > windowSec {
				break
			}
			if target.Time <= anchor.Time {
				continue
			}
			if target.Freq < cfg.FreqMin || target.Freq > cfg.FreqMax {
				continue
			}

			dtMs := (target.Time - anchor.Time) * 1000
			value := Encode(anchor.Freq, target.Freq, dtMs, cfg)

			hashes = append(hashes, Hash{
				Value:      value,
				AnchorTime: anchor.Time,
				AnchorIdx:  i,
				TargetIdx:  j,
			})
			targets++
		}
	}

	return hashes
}

// quantize linearly maps v in [lo, hi] to an integer in [0, 2^bits - 1],
// truncating (not rounding) and clamping out-of-range inputs.
func quantize(v, lo, hi float64, bits uint) uint32 {
	maxVal := float64((uint32(1) << bits) - 1)
	norm := (v - lo) / (hi - lo)
	q := math.Floor(norm * maxVal)
	if q < 0 {
		q = 0
	}
	if q > maxVal {
		q = maxVal
	}
	return uint32(q)
}

// Encode quantizes (f1, f2, dtMs) per cfg's bit widths and packs them
// into a u32 with the anchor frequency in the most significant bits and
// the time delta in the least significant bits.
func Encode(f1, f2, dtMs float64, cfg HashConfig) uint32 {
	qf1 := quantize(f1, cfg.FreqMin, cfg.FreqMax, cfg.BitsF1)
	qf2 := quantize(f2, cfg.FreqMin, cfg.FreqMax, cfg.BitsF2)
	qdt := quantize(dtMs, 0, cfg.FanoutWindowMs, cfg.BitsDt)
	return (qf1 << (cfg.BitsF2 + cfg.BitsDt)) | (qf2 << cfg.BitsDt) | qdt
}

// Decode extracts the quantized (q_f1, q_f2, q_dt) triple packed into
// value by Encode. It is the exact inverse of the packing step, not of
// the (lossy) quantization.
func Decode(value uint32, cfg HashConfig) (qf1, qf2, qdt uint32) {
	dtMask := uint32(1)<<cfg.BitsDt - 1
	f2Mask := uint32(1)<<cfg.BitsF2 - 1

	qdt = value & dtMask
	qf2 = (value >> cfg.BitsDt) & f2Mask
	qf1 = value >> (cfg.BitsF2 + cfg.BitsDt)
	return
}
