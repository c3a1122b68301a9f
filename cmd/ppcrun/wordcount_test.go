package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erisonliang/dotdotnet/errors"
	"github.com/erisonliang/dotdotnet/logger"
	"github.com/erisonliang/dotdotnet/ppc"
)

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(batch int) *Config {
	cfg := &Config{Consumers: 3, Top: 3}
	cfg.Name = serviceName
	cfg.PPC = ppc.Config{Name: "wordcount", Capacity: 2, BatchSize: batch}
	return cfg
}

func TestTally(t *testing.T) {
	tl := newTally()
	tl.addLine("The cat, the hat.")
	tl.addLine("don't stop")

	lines, distinct := tl.totals()
	assert.Equal(t, 2, lines)
	assert.Equal(t, 5, distinct)
	assert.Equal(t, []wordCount{{"the", 2}, {"cat", 1}}, tl.top(2))
}

func TestCount(t *testing.T) {
	logger.SetGlobalLogger(logger.Nop())
	dir := t.TempDir()
	inputs := []string{
		writeInput(t, dir, "a.txt", "alpha beta\nbeta gamma\n"),
		writeInput(t, dir, "b.txt", "beta\n\nalpha\n"),
	}

	for _, batch := range []int{0, 2} {
		tl := newTally()
		require.NoError(t, count(context.Background(), testConfig(batch), inputs, tl, nil))

		lines, _ := tl.totals()
		assert.Equal(t, 5, lines, "batch size %d", batch)
		assert.Equal(t, []wordCount{{"beta", 3}, {"alpha", 2}, {"gamma", 1}}, tl.top(3))
	}
}

func TestCount_MissingFile(t *testing.T) {
	logger.SetGlobalLogger(logger.Nop())
	err := count(context.Background(), testConfig(0),
		[]string{filepath.Join(t.TempDir(), "missing.txt")}, newTally(), nil)

	require.Error(t, err)
	var runErr *ppc.RunError
	require.ErrorAs(t, err, &runErr)
	assert.True(t, errors.HasCode(runErr.Primary, errors.ErrCodeParticipantFailed))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.Name = serviceName
	cfg.ApplyDefaults()

	assert.Equal(t, "wordcount", cfg.PPC.Name)
	assert.Equal(t, ppc.DefaultCapacity, cfg.PPC.Capacity)
	assert.GreaterOrEqual(t, cfg.Consumers, 1)
	assert.Equal(t, 10, cfg.Top)
	assert.NoError(t, cfg.Validate())

	cfg.Consumers = -1
	assert.Error(t, cfg.Validate())
}
