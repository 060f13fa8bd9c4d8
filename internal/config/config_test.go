package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oxhq/jsdeobf/internal/config"
	"github.com/oxhq/jsdeobf/internal/pipeline"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"JSDEOBF_MAX_FIXEDPOINT_ITERATIONS", "JSDEOBF_RENAME_STYLE",
		"JSDEOBF_PRESERVE_COMMENTS", "JSDEOBF_ANNOTATE_WEBPACK",
		"JSDEOBF_INDENT_SIZE", "JSDEOBF_INDENT_WITH_TABS",
	} {
		os.Unsetenv(k)
	}

	cfg := config.Load()
	require.Equal(t, 50, cfg.MaxFixedPointIterations)
	require.Equal(t, pipeline.RenameRoleDerived, cfg.RenameStyle)
	require.True(t, cfg.PreserveComments)
	require.Equal(t, 2, cfg.IndentSize)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JSDEOBF_MAX_FIXEDPOINT_ITERATIONS", "10")
	t.Setenv("JSDEOBF_RENAME_STYLE", "fresh")
	t.Setenv("JSDEOBF_INDENT_WITH_TABS", "true")

	cfg := config.Load()
	require.Equal(t, 10, cfg.MaxFixedPointIterations)
	require.Equal(t, pipeline.RenameDeterministicFresh, cfg.RenameStyle)
	require.True(t, cfg.IndentWithTabs)
}
