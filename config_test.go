package main

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0o644))
	return path
}

func Test_parseFlags(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path := writeFile(t, "config.yaml", lines(
		"native: false",
		"trace: true",
		"timeout: 250ms",
		"prelude: [base.fs, more.fs]",
		"serve: ':8080'",
	))

	var usage strings.Builder
	for _, tc := range []struct {
		name  string
		args  []string
		cfg   func(cfg *config)
		files []string
	}{
		{
			name: "defaults",
			cfg:  func(cfg *config) {},
		},
		{
			name:  "flags",
			args:  []string{"-native=false", "-timeout", "1s", "-prelude", "a.fs", "-prelude", "b.fs", "x.fs", "y.fs"},
			cfg:   func(cfg *config) { cfg.Native = false; cfg.Timeout = time.Second; cfg.Prelude = []string{"a.fs", "b.fs"} },
			files: []string{"x.fs", "y.fs"},
		},
		{
			name: "file",
			args: []string{"-config", path},
			cfg: func(cfg *config) {
				cfg.Native = false
				cfg.Trace = true
				cfg.Timeout = 250 * time.Millisecond
				cfg.Prelude = []string{"base.fs", "more.fs"}
				cfg.Serve = ":8080"
			},
		},
		{
			name: "flags override file",
			args: []string{"-config", path, "-trace=false", "-serve", "", "-emit-llvm", "-", "x.fs"},
			cfg: func(cfg *config) {
				cfg.Native = false
				cfg.Timeout = 250 * time.Millisecond
				cfg.Prelude = []string{"base.fs", "more.fs"}
				cfg.EmitLLVM = "-"
			},
			files: []string{"x.fs"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg, files, err := parseFlags("goforth", tc.args, &usage)
			require.NoError(t, err)
			expected := defaultConfig()
			tc.cfg(&expected)
			assert.Equal(t, expected, cfg)
			if len(tc.files) == 0 {
				assert.Empty(t, files)
			} else {
				assert.Equal(t, tc.files, files)
			}
		})
	}
}

func Test_parseFlags_errors(t *testing.T) {
	var usage strings.Builder

	_, _, err := parseFlags("goforth", []string{"-config", filepath.Join(t.TempDir(), "nope.yaml")}, &usage)
	assert.True(t, errors.Is(err, os.ErrNotExist), "expected a missing explicit config to fail, got %v", err)

	path := writeFile(t, "config.yaml", "bogus: 1\n")
	_, _, err = parseFlags("goforth", []string{"-config", path}, &usage)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), path)
		assert.Contains(t, err.Error(), "bogus")
	}

	_, _, err = parseFlags("goforth", []string{"-nope"}, &usage)
	assert.Error(t, err)
	assert.Contains(t, usage.String(), "-emit-llvm")
}

func Test_loadConfig(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, loadConfig(&cfg, filepath.Join(t.TempDir(), "nope.yaml"), false))
	assert.Equal(t, defaultConfig(), cfg, "expected a missing optional file to change nothing")

	require.NoError(t, loadConfig(&cfg, writeFile(t, "empty.yaml", ""), true))
	assert.Equal(t, defaultConfig(), cfg, "expected an empty file to change nothing")

	require.NoError(t, loadConfig(&cfg, writeFile(t, "history.yaml", "history: /tmp/hist\n"), true))
	assert.Equal(t, "/tmp/hist", cfg.History)
	assert.True(t, cfg.Native, "expected unset keys to keep their defaults")
}
