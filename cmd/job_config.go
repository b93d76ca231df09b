package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/droidtrace/tracediff/diverge"
	"github.com/droidtrace/tracediff/diverge/decode"
	"github.com/droidtrace/tracediff/diverge/pipeline"
)

// JobConfig is the comparison job file. YAML is a superset of JSON, so the
// JSON job files used by earlier tooling load unchanged.
type JobConfig struct {
	RealDeviceOutDir string `yaml:"real_device_droidbot_out_dir"`
	EmulatorOutDir   string `yaml:"emulator_droidbot_out_dir"`
	OutputDir        string `yaml:"output_dir"`
	ProcessNum       int    `yaml:"process_num"`

	Decoder         string   `yaml:"decoder,omitempty"`        // dump tool path; default dmtracedump
	DecodeTimeout   string   `yaml:"decode_timeout,omitempty"` // Go duration; empty = no limit
	Predecoded      bool     `yaml:"predecoded,omitempty"`     // trace files already hold decoded text
	CacheDecoded    bool     `yaml:"cache_decoded,omitempty"`  // keep <trace>.txt.zst next to each input
	ExcludePrefixes []string `yaml:"exclude_prefixes,omitempty"`
}

// LoadJobConfig reads a job file with strict field checking: unknown keys
// (typos) are rejected. Relative directories are made absolute.
func LoadJobConfig(path string) (*JobConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job config: %w", err)
	}
	var cfg JobConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing job config: %w", err)
	}
	for _, dir := range []*string{&cfg.RealDeviceOutDir, &cfg.EmulatorOutDir, &cfg.OutputDir} {
		if *dir == "" {
			continue
		}
		abs, err := filepath.Abs(*dir)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", *dir, err)
		}
		*dir = abs
	}
	return &cfg, nil
}

// Validate checks that all required fields are present and well-formed.
func (c *JobConfig) Validate() error {
	if c.RealDeviceOutDir == "" {
		return fmt.Errorf("real_device_droidbot_out_dir is required")
	}
	if c.EmulatorOutDir == "" {
		return fmt.Errorf("emulator_droidbot_out_dir is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.ProcessNum < 1 {
		return fmt.Errorf("process_num must be >= 1, got %d", c.ProcessNum)
	}
	if c.Predecoded && c.Decoder != "" {
		return fmt.Errorf("decoder cannot be set together with predecoded")
	}
	if _, err := c.decodeTimeout(); err != nil {
		return err
	}
	return nil
}

func (c *JobConfig) decodeTimeout() (time.Duration, error) {
	if c.DecodeTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.DecodeTimeout)
	if err != nil {
		return 0, fmt.Errorf("decode_timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("decode_timeout must be non-negative, got %s", d)
	}
	return d, nil
}

// Job converts a validated config into a pipeline job.
func (c *JobConfig) Job() (pipeline.Job, error) {
	if err := c.Validate(); err != nil {
		return pipeline.Job{}, err
	}
	timeout, _ := c.decodeTimeout()
	return pipeline.Job{
		DeviceDir:   c.RealDeviceOutDir,
		EmulatorDir: c.EmulatorOutDir,
		OutputDir:   c.OutputDir,
		Workers:     c.ProcessNum,
		Decoder:     newDecoder(c.Predecoded, c.CacheDecoded, c.Decoder, timeout),
		Comparator:  diverge.NewComparator(c.ExcludePrefixes),
	}, nil
}

// newDecoder selects how trace files become decoded text.
func newDecoder(predecoded, cache bool, binary string, timeout time.Duration) decode.Decoder {
	if predecoded {
		return decode.File{}
	}
	var dec decode.Decoder = decode.Dmtrace{Binary: binary, Timeout: timeout}
	if cache {
		dec = decode.Caching{Decoder: dec}
	}
	return dec
}
