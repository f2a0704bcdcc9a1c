package main

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcorbin/goforth/internal/logio"
)

func Test_command_files(t *testing.T) {
	prelude := writeFile(t, "prelude.fs", lines(
		`: SQ dup * ; \ compiled`,
		`: SHOW .s ;  \ interpreted`,
	))
	script := writeFile(t, "script.fs", lines(
		"3 SQ",
		"drop drop",
		"4 SQ SQ",
	))
	irPath := filepath.Join(t.TempDir(), "words.ll")

	var logs strings.Builder
	cmd := command{
		config: config{
			Prelude:  []string{prelude},
			EmitLLVM: irPath,
		},
		log: logio.NewLogger(&logs),
	}
	require.NoError(t, cmd.Run(context.Background(), []string{script}))
	assert.Equal(t, "ERROR: stack underflow\n", logs.String())
	assert.Equal(t, 1, cmd.log.ExitCode())

	ir, err := ioutil.ReadFile(irPath)
	require.NoError(t, err)
	assert.Contains(t, string(ir), "define i64 @SQ(")
	assert.NotContains(t, string(ir), "@SHOW")
}

func Test_command_missingFile(t *testing.T) {
	var logs strings.Builder
	cmd := command{log: logio.NewLogger(&logs)}
	err := cmd.Run(context.Background(), []string{filepath.Join(t.TempDir(), "nope.fs")})
	assert.Error(t, err)
}
