package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/stamp/am"
	"github.com/teranos/stamp/errors"
	"github.com/teranos/stamp/scan/annotate"
)

func defaultConfig(t *testing.T) *am.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "am.toml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	cfg, err := am.LoadFromFile(path)
	require.NoError(t, err)
	cfg.Resolver.Timezone = "UTC"
	return cfg
}

func TestBuildDefaults(t *testing.T) {
	e, err := Build(defaultConfig(t))
	require.NoError(t, err)

	out := e.Text("see you at 13:30")
	require.Len(t, out.Spans(), 1)
	assert.Equal(t, "at 13:30", out.Spans()[0].Text)
}

func TestBuildPlaceholder(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Engine.Placeholder = "@@"

	e, err := Build(cfg)
	require.NoError(t, err)
	assert.Equal(t, "@@", e.Marker())

	s := e.NewSession()
	s.Annotate("13:30")
	out := s.Annotate("at @@ on 21/03")
	assert.Equal(t, "at 13:30 on 21/03", out.Rendered())
}

func TestBuildUserCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[pattern]]
id = "compact"
grammar = "[yyyy][MM][dd]T[HH][mm]"
`), 0o644))

	cfg := defaultConfig(t)
	cfg.Catalog.Paths = []string{path}

	e, err := Build(cfg)
	require.NoError(t, err)
	_, ok := e.Catalog().Lookup("compact")
	assert.True(t, ok)
}

func TestBuildRejectsBadConfig(t *testing.T) {
	t.Run("timezone", func(t *testing.T) {
		cfg := defaultConfig(t)
		cfg.Resolver.Timezone = "Mars/Olympus"
		_, err := Build(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "resolver.timezone")
	})

	t.Run("tie break", func(t *testing.T) {
		cfg := defaultConfig(t)
		cfg.Engine.TieBreak = "first"
		_, err := Build(cfg)
		require.Error(t, err)
		assert.True(t, errors.IsInvalidRequestError(err))
	})

	t.Run("catalog", func(t *testing.T) {
		cfg := defaultConfig(t)
		cfg.Catalog.Paths = []string{filepath.Join(t.TempDir(), "nope.toml")}
		_, err := Build(cfg)
		require.Error(t, err)
	})
}

type countingObserver struct{ passes int }

func (c *countingObserver) ObserveAnnotation(annotate.Stats, time.Duration) { c.passes++ }

func TestBuildExtraOptions(t *testing.T) {
	obs := &countingObserver{}
	e, err := Build(defaultConfig(t), annotate.WithObserver(obs))
	require.NoError(t, err)

	e.Text("13:30")
	assert.Equal(t, 1, obs.passes)
}
