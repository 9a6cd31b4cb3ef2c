// Command spectroviz renders a PNG spectrogram for one or more WAV files,
// useful when eyeballing whether a recording's peaks land where the
// constellation-map parameters expect them to.
package main

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/eligwz/spectrogram"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: spectroviz <out-dir> <file.wav> [file2.wav …]")
		os.Exit(1)
	}

	outDir := os.Args[1]
	files := os.Args[2:]
	if len(files) == 0 {
		fmt.Println("no input files given")
		os.Exit(1)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Printf("failed to create output dir: %v\n", err)
		os.Exit(1)
	}

	for _, path := range files {
		if err := render(path, outDir); err != nil {
			fmt.Printf("skipping %s: %v\n", path, err)
			continue
		}
	}
}

func render(path, outDir string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return fmt.Errorf("not a valid WAV file")
	}

	duration, err := decoder.Duration()
	if err != nil {
		return fmt.Errorf("reading duration: %w", err)
	}
	totalSamples := int(duration.Seconds() * float64(decoder.SampleRate))
	if totalSamples == 0 {
		return fmt.Errorf("file has no samples")
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: int(decoder.NumChans),
			SampleRate:  int(decoder.SampleRate),
		},
		Data:           make([]int, totalSamples*int(decoder.NumChans)),
		SourceBitDepth: int(decoder.BitDepth),
	}
	if _, err := decoder.PCMBuffer(buf); err != nil {
		return fmt.Errorf("reading samples: %w", err)
	}

	samples := make([]float64, len(buf.Data))
	maxVal := float64(int(1) << (uint(decoder.BitDepth) - 1))
	for i, v := range buf.Data {
		samples[i] = float64(v) / maxVal
	}

	const width, height = 2048, 512
	img := spectrogram.NewImage128(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(spectrogram.ParseColor("000000")), image.Point{}, draw.Src)

	spectrogram.Drawfft(
		img,
		samples,
		uint32(decoder.SampleRate),
		uint32(height),
		false, // rectangle window off -> Hamming
		false, // use FFT, not direct DFT
		true,  // magnitude
		false, // linear scale
	)

	outPath := filepath.Join(outDir, filepath.Base(path)+".png")
	if err := spectrogram.SavePng(img, outPath); err != nil {
		return fmt.Errorf("saving PNG: %w", err)
	}
	fmt.Printf("wrote %s\n", outPath)
	return nil
}
