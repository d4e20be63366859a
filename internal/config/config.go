// Package config loads altsweep run profiles.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile is a YAML run profile. Every field mirrors a command-line flag;
// zero values mean "not set" and leave the flag default in place.
type Profile struct {
	Input          string        `yaml:"input"`
	Output         string        `yaml:"output"`
	Save           string        `yaml:"save"`
	Wordlist       string        `yaml:"wordlist"`
	Ports          string        `yaml:"ports"`
	NumberSuffix   bool          `yaml:"add_number_suffix"`
	IgnoreExisting bool          `yaml:"ignore_existing"`
	DNSServer      string        `yaml:"dnsserver"`
	MoreInfo       bool          `yaml:"moreinfo"`
	Threads        int           `yaml:"threads"`
	Timeout        time.Duration `yaml:"timeout"`
	PortTimeout    time.Duration `yaml:"port_timeout"`
	Retries        int           `yaml:"retries"`
	AXFR           bool          `yaml:"axfr"`
}

// Load reads the profile at path. Unknown keys are an error.
func Load(path string) (*Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}

	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing profile %s: %w", path, err)
	}

	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return &p, nil
}

func (p *Profile) validate() error {
	switch {
	case p.Threads < 0:
		return fmt.Errorf("threads must not be negative, got %d", p.Threads)
	case p.Retries < 0:
		return fmt.Errorf("retries must not be negative, got %d", p.Retries)
	case p.Timeout < 0:
		return fmt.Errorf("timeout must not be negative, got %s", p.Timeout)
	case p.PortTimeout < 0:
		return fmt.Errorf("port_timeout must not be negative, got %s", p.PortTimeout)
	}
	return nil
}
