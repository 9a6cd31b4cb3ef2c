package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/devrindt/soundprint/pkg/soundprint/apperr"
)

// ConvertToMonoWAV shells out to ffmpeg to transcode an arbitrary audio
// file (mp3, non-16-bit wav, non-44.1kHz wav, etc.) into canonical
// 16-bit PCM mono WAV at sampleRate, writing the result to outPath.
// ReadWAV can then be used unmodified on the result.
func ConvertToMonoWAV(ctx context.Context, inPath, outPath string, sampleRate int) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", inPath,
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-sample_fmt", "s16",
		"-f", "wav",
		outPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return apperr.New(apperr.KindIoFailure,
			fmt.Sprintf("ffmpeg conversion failed: %s", stderr.String()), err)
	}
	return nil
}
