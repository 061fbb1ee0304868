package config

import (
	"strings"
	"testing"

	"github.com/osmcode/mpoly/pkg/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroValueDefaults(t *testing.T) {
	var cfg Config
	assert.EqualValues(t, 1<<20, cfg.Threshold())

	m, err := cfg.BuildFilter()
	require.NoError(t, err)
	assert.True(t, m.Match(osm.TagList{}))
}

func TestLoadParsesThresholdAndFilters(t *testing.T) {
	doc := `
flush_threshold: 4096
filters:
  - key: building
  - key: landuse
    value: forest
`
	cfg, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	assert.EqualValues(t, 4096, cfg.Threshold())

	m, err := cfg.BuildFilter()
	require.NoError(t, err)
	assert.True(t, m.Match(osm.TagList{{Key: "building", Value: "yes"}}))
	assert.True(t, m.Match(osm.TagList{{Key: "landuse", Value: "forest"}}))
	assert.False(t, m.Match(osm.TagList{{Key: "landuse", Value: "residential"}}))
	assert.False(t, m.Match(osm.TagList{{Key: "highway", Value: "primary"}}))
}

func TestLoadParsesPatternRules(t *testing.T) {
	doc := `
filters:
  - key: nat.*
    key_pattern: true
`
	cfg, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	m, err := cfg.BuildFilter()
	require.NoError(t, err)
	assert.True(t, m.Match(osm.TagList{{Key: "natural", Value: "water"}}))
	assert.False(t, m.Match(osm.TagList{{Key: "building", Value: "yes"}}))
}

func TestLoadParsesAssemblerConfig(t *testing.T) {
	doc := `
assembler_config:
  max_rings: 10
  strict: true
`
	cfg, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	require.NotNil(t, cfg.AssemblerConfig)
	assert.EqualValues(t, 10, cfg.AssemblerConfig["max_rings"])
	assert.Equal(t, true, cfg.AssemblerConfig["strict"])
}

func TestInvalidPatternReturnsError(t *testing.T) {
	doc := `
filters:
  - key: "("
    key_pattern: true
`
	cfg, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	_, err = cfg.BuildFilter()
	assert.Error(t, err)
}
