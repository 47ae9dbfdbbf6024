package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/ChrisMcGann/lipidkey/pkg/composer"
	"github.com/ChrisMcGann/lipidkey/pkg/core"
	"github.com/ChrisMcGann/lipidkey/pkg/filter"
)

// RunConfig is the compose run file (lipidkey.yaml). Command line flags
// override the values it sets.
type RunConfig struct {
	Whitelist     string   `yaml:"whitelist"`
	Registry      string   `yaml:"registry"`
	Classes       []string `yaml:"classes"`
	Adducts       []string `yaml:"adducts"`
	ExactPosition bool     `yaml:"exact_position"`
	MS2PPM        float64  `yaml:"ms2_ppm"`
	MZStart       float64  `yaml:"mz_start"`
	MZEnd         float64  `yaml:"mz_end"`
	MaxDB         int      `yaml:"max_db"`
	Links         []string `yaml:"links"`
	Workers       int      `yaml:"workers"`
	Output        string   `yaml:"output"`
	CSVOutput     string   `yaml:"csv_output"`
	Description   string   `yaml:"description"`
}

// LoadConfig reads a YAML run file. Unknown keys are rejected.
func LoadConfig(path string) (*RunConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	cfg := &RunConfig{}
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyFlags overrides config values with every flag set on the command line.
func (c *RunConfig) ApplyFlags(flags *pflag.FlagSet) error {
	var err error
	flags.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "whitelist":
			c.Whitelist, err = flags.GetString(f.Name)
		case "registry":
			c.Registry, err = flags.GetString(f.Name)
		case "classes":
			c.Classes, err = flags.GetStringSlice(f.Name)
		case "adducts":
			c.Adducts, err = flags.GetStringArray(f.Name)
		case "exact-position":
			c.ExactPosition, err = flags.GetBool(f.Name)
		case "ppm":
			c.MS2PPM, err = flags.GetFloat64(f.Name)
		case "mz-start":
			c.MZStart, err = flags.GetFloat64(f.Name)
		case "mz-end":
			c.MZEnd, err = flags.GetFloat64(f.Name)
		case "max-db":
			c.MaxDB, err = flags.GetInt(f.Name)
		case "links":
			c.Links, err = flags.GetStringSlice(f.Name)
		case "threads":
			c.Workers, err = flags.GetInt(f.Name)
		case "out":
			c.Output, err = flags.GetString(f.Name)
		case "csv":
			c.CSVOutput, err = flags.GetString(f.Name)
		case "description":
			c.Description, err = flags.GetString(f.Name)
		}
	})
	return err
}

// Normalize fills defaults and checks the run can proceed.
func (c *RunConfig) Normalize() error {
	if c.Whitelist == "" {
		return fmt.Errorf("whitelist is required")
	}
	if c.Output == "" && c.CSVOutput == "" {
		return fmt.Errorf("an output database or CSV file is required")
	}
	if c.MS2PPM == 0 {
		c.MS2PPM = composer.DefaultPPM
	}
	if c.MS2PPM < 0 {
		return fmt.Errorf("ms2_ppm must be positive, got %g", c.MS2PPM)
	}
	if c.MZStart > 0 && c.MZEnd > 0 && c.MZStart > c.MZEnd {
		return fmt.Errorf("mz_start %g is above mz_end %g", c.MZStart, c.MZEnd)
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	for i := range c.Classes {
		c.Classes[i] = strings.TrimSpace(c.Classes[i])
	}
	if _, err := c.links(); err != nil {
		return err
	}
	return nil
}

// AllClasses reports whether every registry class should be composed.
func (c *RunConfig) AllClasses() bool {
	if len(c.Classes) == 0 {
		return true
	}
	for _, cl := range c.Classes {
		if strings.EqualFold(cl, "all") {
			return true
		}
	}
	return false
}

// Options returns the generator options of the run.
func (c *RunConfig) Options() composer.Options {
	return composer.Options{
		Adducts:         c.Adducts,
		ResolvePosition: c.ExactPosition,
		PPM:             c.MS2PPM,
		Workers:         c.Workers,
	}
}

// Filter returns the post-generation species filter of the run.
func (c *RunConfig) Filter() (*filter.Config, error) {
	links, err := c.links()
	if err != nil {
		return nil, err
	}
	return &filter.Config{
		MinMZ: c.MZStart,
		MaxMZ: c.MZEnd,
		MaxDB: c.MaxDB,
		Links: links,
	}, nil
}

func (c *RunConfig) links() ([]core.Link, error) {
	var out []core.Link
	for _, s := range c.Links {
		l, err := core.ParseLink(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("links: %w", err)
		}
		out = append(out, l)
	}
	return out, nil
}
