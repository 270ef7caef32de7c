// Package pipeline - Loads a kernel and an image, filters the image in the
// configured mode and writes the result, timing every phase.
package pipeline

import (
	"os"
	"runtime"
	"strings"

	"github.com/nvr-ai/go-convolution/images"
	"github.com/nvr-ai/go-convolution/images/convolution"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Mode selects how the filter is executed.
type Mode string

const (
	// ModeSequential filters on the calling goroutine.
	ModeSequential Mode = "sequential"
	// ModeParallel splits rows between goroutines writing one shared output.
	ModeParallel Mode = "parallel"
	// ModeDistributed scatters row ranges to workers and gathers row blocks.
	ModeDistributed Mode = "distributed"
)

// DefaultOutput is the output path used when none is given.
const DefaultOutput = "output.png"

// ErrInvalidUsage is returned for missing arguments and invalid settings.
var ErrInvalidUsage = errors.New("invalid usage")

// Config describes one filtering run.
type Config struct {
	// Input is the image to filter.
	Input string `json:"input" yaml:"input"`
	// Kernel is the kernel text file.
	Kernel string `json:"kernel" yaml:"kernel"`
	// Output is where the filtered image is written; the extension picks the format.
	Output string `json:"output" yaml:"output"`
	// Border is "passthrough" or "reflect".
	Border string `json:"border" yaml:"border"`
	// Mode is sequential, parallel or distributed.
	Mode Mode `json:"mode" yaml:"mode"`
	// Workers is the goroutine count for the parallel and distributed modes.
	Workers int `json:"workers" yaml:"workers"`
	// MaxDimension downscales larger inputs before filtering; 0 disables it.
	MaxDimension int `json:"max_dimension" yaml:"max_dimension"`
	// Resample is the filter used by MaxDimension.
	Resample images.ResampleFilter `json:"resample" yaml:"resample"`
	// RequireInterior fails the run when the kernel leaves no pixel to filter.
	RequireInterior bool `json:"require_interior" yaml:"require_interior"`
}

// DefaultConfig returns the settings used when neither a config file nor a
// flag says otherwise.
func DefaultConfig() Config {
	return Config{
		Output:   DefaultOutput,
		Border:   string(convolution.BorderPassthrough),
		Mode:     ModeSequential,
		Workers:  runtime.NumCPU(),
		Resample: images.LanczosFilter,
	}
}

// LoadConfig reads a YAML (or JSON) config file on top of DefaultConfig.
//
// Arguments:
// - path: The config file.
//
// Returns:
// - The merged config. It is not validated.
// - An error wrapping ErrInvalidUsage when the file is unreadable or malformed.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(ErrInvalidUsage, "config %s (%v)", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(ErrInvalidUsage, "config %s (%v)", path, err)
	}
	return cfg, nil
}

// Validate checks that the config describes a runnable job.
func (c Config) Validate() error {
	if c.Input == "" {
		return errors.Wrap(ErrInvalidUsage, "missing input image")
	}
	if c.Kernel == "" {
		return errors.Wrap(ErrInvalidUsage, "missing kernel file")
	}
	if c.Output == "" {
		return errors.Wrap(ErrInvalidUsage, "missing output path")
	}
	if _, err := images.FormatFromPath(c.Output); err != nil {
		return errors.Wrapf(ErrInvalidUsage, "output %s (%v)", c.Output, err)
	}
	if _, err := convolution.ParseBorderMode(c.Border); err != nil {
		return errors.Wrap(ErrInvalidUsage, err.Error())
	}
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if c.Workers < 1 {
		return errors.Wrapf(ErrInvalidUsage, "workers must be at least 1, got %d", c.Workers)
	}
	if c.MaxDimension < 0 {
		return errors.Wrapf(ErrInvalidUsage, "max dimension must not be negative, got %d", c.MaxDimension)
	}
	return nil
}

// ParseMode converts a flag or config value into a Mode. The empty string
// selects ModeSequential.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeSequential:
		return ModeSequential, nil
	case ModeParallel:
		return ModeParallel, nil
	case ModeDistributed, "mpi":
		return ModeDistributed, nil
	default:
		return "", errors.Wrapf(ErrInvalidUsage, "unknown mode %q", s)
	}
}
