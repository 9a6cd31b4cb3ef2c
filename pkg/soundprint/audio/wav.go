// Package audio provides the external WAV reader the fingerprinting core
// treats as a black box: it returns normalized mono samples, a sample
// rate, and a duration. Only canonical little-endian PCM 16-bit WAV is
// accepted; everything else must be converted upstream (see convert.go).
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/devrindt/soundprint/pkg/soundprint/apperr"
)

// Samples holds the decoded result of ReadWAV: mono float64 samples
// normalized to [-1, 1], the source sample rate, and the duration in
// seconds.
type Samples struct {
	Data       []float64
	SampleRate int
	Duration   float64
}

type fmtChunk struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// ReadWAV opens path and decodes it as canonical PCM16 WAV, downmixing
// stereo to mono by averaging channels.
func ReadWAV(path string) (Samples, error) {
	f, err := os.Open(path)
	if err != nil {
		return Samples{}, apperr.New(apperr.KindIoFailure, "open wav file", err)
	}
	defer f.Close()
	return ReadWAVReader(f)
}

// ReadWAVReader decodes a canonical PCM16 WAV stream from r.
func ReadWAVReader(r io.Reader) (Samples, error) {
	if err := readRIFFHeader(r); err != nil {
		return Samples{}, err
	}

	var fc *fmtChunk
	var raw []byte

	for fc == nil || raw == nil {
		id, size, err := readChunkHeader(r)
		if err != nil {
			if err == io.EOF {
				break
			}
			return Samples{}, err
		}

		switch id {
		case "fmt ":
			fc, err = readFmtChunk(r, size)
			if err != nil {
				return Samples{}, err
			}
		case "data":
			raw, err = readDataChunk(r, size)
			if err != nil {
				return Samples{}, err
			}
		default:
			if err := skipChunk(r, size); err != nil {
				return Samples{}, err
			}
		}
	}

	if fc == nil {
		return Samples{}, apperr.New(apperr.KindMalformedAudio, "missing fmt chunk", nil)
	}
	if raw == nil {
		return Samples{}, apperr.New(apperr.KindMalformedAudio, "missing data chunk", nil)
	}
	if fc.AudioFormat != 1 {
		return Samples{}, apperr.New(apperr.KindMalformedAudio,
			fmt.Sprintf("unsupported audio format code %d, only PCM (1) is accepted", fc.AudioFormat), nil)
	}
	if fc.BitsPerSample != 16 {
		return Samples{}, apperr.New(apperr.KindMalformedAudio,
			fmt.Sprintf("unsupported bit depth %d, only 16-bit PCM is accepted", fc.BitsPerSample), nil)
	}

	int16Samples, err := convertToInt16Samples(raw)
	if err != nil {
		return Samples{}, err
	}

	var mono []float64
	switch fc.NumChannels {
	case 1:
		mono = convertMonoToFloat64(int16Samples)
	case 2:
		mono = convertStereoToMono(int16Samples)
	default:
		return Samples{}, apperr.New(apperr.KindMalformedAudio,
			fmt.Sprintf("unsupported channel count %d", fc.NumChannels), nil)
	}

	return Samples{
		Data:       mono,
		SampleRate: int(fc.SampleRate),
		Duration:   float64(len(mono)) / float64(fc.SampleRate),
	}, nil
}

func readRIFFHeader(r io.Reader) error {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return apperr.New(apperr.KindMalformedAudio, "read RIFF header", err)
	}
	if string(header[0:4]) != "RIFF" {
		return apperr.New(apperr.KindMalformedAudio, "not a RIFF file", nil)
	}
	if string(header[8:12]) != "WAVE" {
		return apperr.New(apperr.KindMalformedAudio, "not a WAVE file", nil)
	}
	return nil
}

func readChunkHeader(r io.Reader) (id string, size uint32, err error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return "", 0, io.EOF
		}
		return "", 0, apperr.New(apperr.KindMalformedAudio, "read chunk header", err)
	}
	return string(buf[0:4]), binary.LittleEndian.Uint32(buf[4:8]), nil
}

func readFmtChunk(r io.Reader, size uint32) (*fmtChunk, error) {
	if size < 16 {
		return nil, apperr.New(apperr.KindMalformedAudio, "fmt chunk too small", nil)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, apperr.New(apperr.KindMalformedAudio, "read fmt chunk", err)
	}
	return &fmtChunk{
		AudioFormat:   binary.LittleEndian.Uint16(buf[0:2]),
		NumChannels:   binary.LittleEndian.Uint16(buf[2:4]),
		SampleRate:    binary.LittleEndian.Uint32(buf[4:8]),
		ByteRate:      binary.LittleEndian.Uint32(buf[8:12]),
		BlockAlign:    binary.LittleEndian.Uint16(buf[12:14]),
		BitsPerSample: binary.LittleEndian.Uint16(buf[14:16]),
	}, nil
}

func readDataChunk(r io.Reader, size uint32) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, apperr.New(apperr.KindMalformedAudio, "read data chunk (truncated)", err)
	}
	return buf, nil
}

func skipChunk(r io.Reader, size uint32) error {
	// Chunks are word-aligned: an odd-sized chunk is followed by a pad
	// byte that must be consumed too.
	toSkip := int64(size)
	if size%2 == 1 {
		toSkip++
	}
	if seeker, ok := r.(io.Seeker); ok {
		_, err := seeker.Seek(toSkip, io.SeekCurrent)
		if err != nil {
			return apperr.New(apperr.KindMalformedAudio, "skip unknown chunk", err)
		}
		return nil
	}
	if _, err := io.CopyN(io.Discard, r, toSkip); err != nil {
		return apperr.New(apperr.KindMalformedAudio, "skip unknown chunk", err)
	}
	return nil
}

func convertToInt16Samples(raw []byte) ([]int16, error) {
	if len(raw)%2 != 0 {
		return nil, apperr.New(apperr.KindInvalidInput, "data chunk length must be a multiple of 2 bytes", nil)
	}
	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2 : i*2+2]))
	}
	return samples, nil
}

const int16Scale = 1.0 / 32768.0

func convertMonoToFloat64(samples []int16) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s) * int16Scale
	}
	return out
}

func convertStereoToMono(samples []int16) []float64 {
	n := len(samples) / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		left := float64(samples[2*i])
		right := float64(samples[2*i+1])
		out[i] = (left + right) / 2 * int16Scale
	}
	return out
}
