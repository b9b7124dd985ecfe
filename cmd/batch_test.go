package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/choropleth-cli/internal/dataset"
)

func TestParseManifest(t *testing.T) {
	m, err := parseManifest([]byte(`
defaults:
  value_col: gdp
  projection: Mollweide
  legend: true
  edge_width: 0
maps:
  - name: gdp
    data: gdp.csv
    out: out/gdp.png
    scheme: quantiles
    k: 4
  - data: /abs/pop.csv
    out: pop.png
    legend: false
    label_topn: 5
  - data: https://example.com/exports/pop.csv
    out: remote.png
`))
	require.NoError(t, err)
	require.Len(t, m.Maps, 3)
	m.dir = "/work"

	c := testConfig()

	first := m.options(m.Maps[0], c)
	assert.Equal(t, filepath.Join("/work", "gdp.csv"), first.DataPath)
	assert.Equal(t, filepath.Join("/work", "out", "gdp.png"), first.OutPath)
	assert.Equal(t, "gdp", first.ValueCol)
	assert.Equal(t, "iso_a3", first.CodeCol)
	assert.Equal(t, "Mollweide", first.Projection)
	assert.Equal(t, "quantiles", first.Scheme)
	assert.Equal(t, 4, first.K)
	assert.True(t, first.Legend)
	assert.Zero(t, first.EdgeWidth)
	assert.Equal(t, "viridis", first.Colormap)
	assert.False(t, first.LabelRequired)

	second := m.options(m.Maps[1], c)
	assert.Equal(t, "/abs/pop.csv", second.DataPath)
	assert.Equal(t, filepath.Join("/work", "pop.png"), second.OutPath)
	assert.False(t, second.Legend)
	assert.Equal(t, 5, second.LabelTopN)
	assert.Equal(t, 5, second.K)
	assert.Empty(t, second.Scheme)
	assert.Empty(t, second.WorldPath)

	third := m.options(m.Maps[2], c)
	assert.Equal(t, "https://example.com/exports/pop.csv", third.DataPath)
}

func TestManifestOptions_WorldPathOrigin(t *testing.T) {
	c := testConfig()
	c.World.Path = "shapes/ne_110m.zip"

	m, err := parseManifest([]byte(`
maps:
  - data: a.csv
    out: a.png
  - data: b.csv
    out: b.png
    world: local/world.geojson
`))
	require.NoError(t, err)
	m.dir = "jobs"

	fromConfig := m.options(m.Maps[0], c)
	assert.Equal(t, "shapes/ne_110m.zip", fromConfig.WorldPath)
	assert.Equal(t, filepath.Join("jobs", "a.csv"), fromConfig.DataPath)

	fromManifest := m.options(m.Maps[1], c)
	assert.Equal(t, filepath.Join("jobs", "local", "world.geojson"), fromManifest.WorldPath)

	m.Defaults.World = "defaults.geojson"
	fromDefaults := m.options(m.Maps[0], c)
	assert.Equal(t, filepath.Join("jobs", "defaults.geojson"), fromDefaults.WorldPath)
}

func TestParseManifest_Errors(t *testing.T) {
	_, err := parseManifest([]byte("maps: []\n"))
	assert.Error(t, err)

	_, err = parseManifest([]byte("maps: [unterminated\n"))
	assert.Error(t, err)
}

func TestLoadManifest_MissingFile(t *testing.T) {
	_, err := loadManifest(filepath.Join(t.TempDir(), "maps.yaml"))
	assert.Error(t, err)
}

func writeBatchFixture(t *testing.T, content string) (string, *manifest) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.csv"),
		[]byte("iso_a3,value\nUSA,10\nFRA,20\nJPN,30\nBRA,15\n"), 0o600))
	path := filepath.Join(dir, "maps.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	m, err := loadManifest(path)
	require.NoError(t, err)
	return dir, m
}

const lowResDefaults = `
defaults:
  data: data.csv
  dpi: 20
  width: 4
  height: 2
`

func TestRunBatch_RendersEveryMap(t *testing.T) {
	dir, m := writeBatchFixture(t, lowResDefaults+`
maps:
  - out: continuous.png
  - out: classed.png
    scheme: equal_interval
    k: 3
    legend: true
`)

	var out bytes.Buffer
	require.NoError(t, runBatch(context.Background(), m, testConfig(), false, &out))

	for _, name := range []string{"continuous.png", "classed.png"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
	assert.Equal(t, 2, strings.Count(out.String(), "Saved "))
}

func TestRunBatch_StopsOnFirstFailure(t *testing.T) {
	dir, m := writeBatchFixture(t, lowResDefaults+`
maps:
  - out: bad.png
    data: missing.csv
  - out: good.png
`)

	err := runBatch(context.Background(), m, testConfig(), false, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, dataset.ErrInputFile))

	_, statErr := os.Stat(filepath.Join(dir, "good.png"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunBatch_KeepGoing(t *testing.T) {
	dir, m := writeBatchFixture(t, lowResDefaults+`
maps:
  - out: bad.png
    data: missing.csv
  - out: good.png
`)

	err := runBatch(context.Background(), m, testConfig(), true, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 maps failed")

	_, statErr := os.Stat(filepath.Join(dir, "good.png"))
	assert.NoError(t, statErr)
}

func TestRunBatch_Canceled(t *testing.T) {
	_, m := writeBatchFixture(t, lowResDefaults+`
maps:
  - out: a.png
`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runBatch(ctx, m, testConfig(), false, &bytes.Buffer{})
	assert.True(t, eris.Is(err, context.Canceled))
}
