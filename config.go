package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// config collects command settings, read from a YAML file and then
// overridden by any command line flags that were explicitly given.
type config struct {
	Native   bool          `yaml:"native"`
	Trace    bool          `yaml:"trace"`
	Timeout  time.Duration `yaml:"timeout"`
	History  string        `yaml:"history"`
	Prelude  []string      `yaml:"prelude"`
	EmitLLVM string        `yaml:"emit_llvm"`
	Serve    string        `yaml:"serve"`
}

func defaultConfig() config {
	cfg := config{Native: true}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.History = filepath.Join(home, ".goforth", "history")
	}
	return cfg
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "goforth", "config.yaml")
}

// loadConfig decodes the file at path over cfg. A missing file is only an
// error if required.
func loadConfig(cfg *config, path string, required bool) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return nil
	} else if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return fmt.Errorf("%v: %w", path, err)
	}
	return nil
}

// parseFlags parses command line arguments into a config, returning any
// remaining arguments as script file names.
func parseFlags(name string, args []string, output io.Writer) (cfg config, files []string, err error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	var flags config
	configPath := fs.String("config", defaultConfigPath(), "read settings from a YAML file")
	fs.BoolVar(&flags.Native, "native", false, "compile eligible words to native closures")
	fs.BoolVar(&flags.Trace, "trace", false, "enable trace logging")
	fs.DurationVar(&flags.Timeout, "timeout", 0, "specify a time limit for each evaluation")
	fs.StringVar(&flags.History, "history", "", "interactive history file")
	fs.Var((*stringList)(&flags.Prelude), "prelude", "evaluate a file before any input; may be repeated")
	fs.StringVar(&flags.EmitLLVM, "emit-llvm", "", "write LLVM IR for compiled words to a file (- for stdout)")
	fs.StringVar(&flags.Serve, "serve", "", "serve sessions over websocket at the given address")
	if err := fs.Parse(args); err != nil {
		return cfg, nil, err
	}

	given := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { given[f.Name] = true })

	cfg = defaultConfig()
	if err := loadConfig(&cfg, *configPath, given["config"]); err != nil {
		return cfg, nil, err
	}

	if given["native"] {
		cfg.Native = flags.Native
	}
	if given["trace"] {
		cfg.Trace = flags.Trace
	}
	if given["timeout"] {
		cfg.Timeout = flags.Timeout
	}
	if given["history"] {
		cfg.History = flags.History
	}
	if given["prelude"] {
		cfg.Prelude = flags.Prelude
	}
	if given["emit-llvm"] {
		cfg.EmitLLVM = flags.EmitLLVM
	}
	if given["serve"] {
		cfg.Serve = flags.Serve
	}
	return cfg, fs.Args(), nil
}

type stringList []string

func (sl *stringList) String() string {
	if sl == nil {
		return ""
	}
	return strings.Join(*sl, ",")
}

func (sl *stringList) Set(s string) error {
	*sl = append(*sl, s)
	return nil
}
