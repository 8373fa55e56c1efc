package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"lcddoc/internal/hd44780"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvMode  = "LCDCTL_MODE"
	EnvDB    = "LCDCTL_DB"
	EnvDocs  = "LCDCTL_DOCS"
	EnvWidth = "LCDCTL_WIDTH"
)

type Config struct {
	Display struct {
		Mode  string `yaml:"mode"` // "4bit" or "8bit"
		Width int    `yaml:"width"`
		Pins  struct {
			RS string `yaml:"rs"`
			RW string `yaml:"rw"`
			E  string `yaml:"e"`
			D7 string `yaml:"d7"`
			D6 string `yaml:"d6"`
			D5 string `yaml:"d5"`
			D4 string `yaml:"d4"`
			D3 string `yaml:"d3"`
			D2 string `yaml:"d2"`
			D1 string `yaml:"d1"`
			D0 string `yaml:"d0"`
		} `yaml:"pins"`
		// Zero durations keep the driver defaults.
		Timing struct {
			PowerOn     time.Duration `yaml:"power_on"`
			Enable      time.Duration `yaml:"enable"`
			Step        time.Duration `yaml:"step"`
			FunctionSet time.Duration `yaml:"function_set"`
			Command     time.Duration `yaml:"command"`
		} `yaml:"timing"`
	} `yaml:"display"`
	Index struct {
		DB   string `yaml:"db"`
		Docs string `yaml:"docs"`
		Src  string `yaml:"src"`
	} `yaml:"index"`
}

// Default returns the configuration used when no file exists: a 16 column display on
// a 4-bit bus and a database in the working directory.
func Default() *Config {
	var cfg Config
	cfg.Display.Mode = "4bit"
	cfg.Display.Width = 16
	cfg.Index.DB = "lcddoc.db"
	cfg.Index.Docs = "docs/html"
	cfg.Index.Src = "."
	return &cfg
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	// 3. Override with Environment Variables if present
	if mode := os.Getenv(EnvMode); mode != "" {
		cfg.Display.Mode = mode
	}
	if db := os.Getenv(EnvDB); db != "" {
		cfg.Index.DB = db
	}
	if docs := os.Getenv(EnvDocs); docs != "" {
		cfg.Index.Docs = docs
	}
	if width := os.Getenv(EnvWidth); width != "" {
		w, err := strconv.Atoi(width)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvWidth, err)
		}
		cfg.Display.Width = w
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values the driver cannot check itself.
func (c *Config) Validate() error {
	if _, err := hd44780.ParseInterfaceMode(c.Display.Mode); err != nil {
		return fmt.Errorf("display.mode: %w", err)
	}
	if c.Display.Width < 1 || c.Display.Width > hd44780.RowCapacity {
		return fmt.Errorf("display.width: %d outside 1..%d", c.Display.Width, hd44780.RowCapacity)
	}
	return nil
}

// Wiring returns the pin names of the display section.
func (c *Config) Wiring() (hd44780.Wiring, error) {
	mode, err := hd44780.ParseInterfaceMode(c.Display.Mode)
	if err != nil {
		return hd44780.Wiring{}, err
	}
	p := c.Display.Pins
	return hd44780.Wiring{
		Mode: mode,
		RS:   p.RS, RW: p.RW, E: p.E,
		Data7: p.D7, Data6: p.D6, Data5: p.D5, Data4: p.D4,
		Data3: p.D3, Data2: p.D2, Data1: p.D1, Data0: p.D0,
	}, nil
}

// Timing returns the driver defaults with the configured delays applied.
func (c *Config) Timing() hd44780.Timing {
	t := hd44780.DefaultTiming()
	ct := c.Display.Timing
	for _, d := range []struct {
		dst *time.Duration
		v   time.Duration
	}{
		{&t.PowerOn, ct.PowerOn},
		{&t.Enable, ct.Enable},
		{&t.Step, ct.Step},
		{&t.FunctionSet, ct.FunctionSet},
		{&t.Command, ct.Command},
	} {
		if d.v > 0 {
			*d.dst = d.v
		}
	}
	return t
}
