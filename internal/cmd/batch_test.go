package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/noisetex/assets"
	"github.com/MeKo-Tech/noisetex/internal/noise"
	"github.com/MeKo-Tech/noisetex/internal/texture"
)

func TestSeedTasks(t *testing.T) {
	base := texture.DefaultParams()
	base.Seed = -2

	tasks, err := seedTasks(base, 4, "Noise%d")
	require.NoError(t, err)
	require.Len(t, tasks, 4)
	assert.Equal(t, "Noise-2", tasks[0].Name)
	assert.Equal(t, "Noise1", tasks[3].Name)
	assert.Equal(t, int64(1), tasks[3].Params.Seed)

	_, err = seedTasks(base, 0, "Noise%d")
	assert.Error(t, err)
	_, err = seedTasks(base, 2, "Noise")
	assert.Error(t, err)

	base.Octaves = 0
	_, err = seedTasks(base, 2, "Noise%d")
	assert.ErrorIs(t, err, texture.ErrInvalidParameter)
}

func TestParseBuiltinPresets(t *testing.T) {
	presets, err := parsePresets(assets.Presets, texture.DefaultParams())
	require.NoError(t, err)
	require.Len(t, presets, 4)

	assert.Equal(t, "Clouds", presets[0].Name)
	assert.Equal(t, 6, presets[0].Octaves)
	assert.Equal(t, 2.0, presets[1].Power)
	assert.True(t, presets[2].Inverted)
	assert.Equal(t, noise.Perlin, presets[3].Backend)
}

func TestPresetsFillFromBase(t *testing.T) {
	base := texture.DefaultParams()
	base.Width = 64
	base.Persistence = 0.7

	presets, err := parsePresets([]byte(`
batch:
  textures:
    - name: Sparse
      octaves: 2
      seed: 5
    - name: Flat
      persistence: 0
      inverted: true
`), base)
	require.NoError(t, err)

	tasks, err := presetTasks(presets)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	p := tasks[0].Params
	assert.Equal(t, 64, p.Width)
	assert.Equal(t, base.Height, p.Height)
	assert.Equal(t, 2, p.Octaves)
	assert.Equal(t, 0.7, p.Persistence)
	assert.Equal(t, int64(5), p.Seed)

	flat := tasks[1].Params
	assert.Equal(t, 0.0, flat.Persistence, "explicit zero is kept")
	assert.Equal(t, base.Octaves, flat.Octaves)
	assert.True(t, flat.Inverted)
}

func TestPresetTasksRejectsBadPresets(t *testing.T) {
	pr := preset{Name: "Sparse", Params: texture.DefaultParams()}

	_, err := presetTasks([]preset{pr, pr})
	assert.Error(t, err, "duplicate names")

	pr.Name = ""
	_, err = presetTasks([]preset{pr})
	assert.Error(t, err)

	pr.Name = "Wild"
	pr.Lacunarity = 9
	_, err = presetTasks([]preset{pr})
	assert.ErrorIs(t, err, texture.ErrInvalidParameter)
}

func TestDecodePresetsRejectsNonList(t *testing.T) {
	_, err := decodePresets("clouds", texture.DefaultParams())
	assert.Error(t, err)

	presets, err := decodePresets(nil, texture.DefaultParams())
	require.NoError(t, err)
	assert.Empty(t, presets)
}
