package soundprint

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/devrindt/soundprint/pkg/soundprint/fingerprint"
	"github.com/devrindt/soundprint/pkg/soundprint/match"
)

// Config bundles every tunable knob of the pipeline. All knobs used
// during enrollment must be reused verbatim for queries against the
// same database — the bit layout of the hash, the temporal
// quantization of peaks, and the voting bin width must agree exactly.
type Config struct {
	Spectrogram fingerprint.SpectrogramConfig `yaml:"spectrogram"`
	Peaks       fingerprint.PeakConfig        `yaml:"peaks"`
	Hash        fingerprint.HashConfig        `yaml:"hash"`
	Match       match.Config                  `yaml:"match"`

	logger Logger // set via WithLogger; not part of the YAML surface
}

// Option mutates a Config; NewService applies them over DefaultConfig in
// order.
type Option func(*Config)

// DefaultConfig returns the reference configuration described by the
// fingerprinting specification.
func DefaultConfig() Config {
	return Config{
		Spectrogram: fingerprint.DefaultSpectrogramConfig(),
		Peaks:       fingerprint.DefaultPeakConfig(),
		Hash:        fingerprint.DefaultHashConfig(),
		Match:       match.DefaultConfig(),
	}
}

// WithSpectrogramConfig overrides the STFT window/hop settings.
func WithSpectrogramConfig(c fingerprint.SpectrogramConfig) Option {
	return func(cfg *Config) { cfg.Spectrogram = c }
}

// WithPeakConfig overrides local-maximum detection and thresholding.
func WithPeakConfig(c fingerprint.PeakConfig) Option {
	return func(cfg *Config) { cfg.Peaks = c }
}

// WithHashConfig overrides the combinatorial-hashing fan-out and bit
// layout.
func WithHashConfig(c fingerprint.HashConfig) Option {
	return func(cfg *Config) { cfg.Hash = c }
}

// WithMatchConfig overrides the voting matcher's bin width and candidate
// thresholds.
func WithMatchConfig(c match.Config) Option {
	return func(cfg *Config) { cfg.Match = c }
}

// LoadConfigFile reads a YAML configuration file and applies it on top
// of DefaultConfig, returning the merged result. Any field omitted from
// the file keeps its default value.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, NewError(KindIoFailure, "read config file", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, NewError(KindInvalidInput, "parse config file", err)
	}
	return cfg, nil
}
