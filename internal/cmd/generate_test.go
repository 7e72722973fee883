package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/noisetex/internal/catalog"
	"github.com/MeKo-Tech/noisetex/internal/imageio"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestGenerateCommandWritesBelowAssetRoot(t *testing.T) {
	root := t.TempDir()

	_, err := execute(t, "generate",
		"--asset-root", root,
		"--save-path", filepath.Join("Resources", "Noise3.bmp"),
		"--seed", "3", "--width", "20", "--height", "10", "--octaves", "2",
		"--tiled-preview",
	)
	require.NoError(t, err)

	img, err := imageio.ReadFile(filepath.Join(root, "Resources", "Noise3.bmp"))
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())
	assert.Equal(t, 10, img.Bounds().Dy())

	tiled, err := imageio.ReadFile(filepath.Join(root, "Resources", "Noise3_tiled.bmp"))
	require.NoError(t, err)
	assert.Equal(t, 40, tiled.Bounds().Dx())
}

func TestGenerateCommandRejectsOutOfRangeOctaves(t *testing.T) {
	_, err := execute(t, "generate", "--asset-root", t.TempDir(), "--octaves", "10", "--tiled-preview=false")
	assert.Error(t, err)
}

func TestGradientCommand(t *testing.T) {
	root := t.TempDir()

	_, err := execute(t, "gradient",
		"--asset-root", root,
		"--stops", "0:black,1:#ff0000",
		"--resolution", "16",
		"--save-path", "grad.png",
	)
	require.NoError(t, err)

	img, err := imageio.ReadFile(filepath.Join(root, "grad.png"))
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 1, img.Bounds().Dy())
}

func TestBatchCommandToCatalogAndList(t *testing.T) {
	root := t.TempDir()
	db := filepath.Join(root, "noise.db")

	_, err := execute(t, "batch",
		"--asset-root", root,
		"--seed", "10", "--count", "3",
		"--width", "8", "--height", "8", "--octaves", "1",
		"--format", "catalog", "--output-file", db,
		"--progress=false",
	)
	require.NoError(t, err)

	r, err := catalog.OpenReader(db)
	require.NoError(t, err)
	infos, err := r.List()
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.Len(t, infos, 3)
	assert.Equal(t, "Noise10", infos[0].Name)
	assert.Equal(t, int64(12), infos[2].Seed)

	out, err := execute(t, "catalog", "list", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Noise11")

	exported := filepath.Join(root, "out", "noise11.png")
	_, err = execute(t, "catalog", "export", db, infos[1].Key, exported)
	require.NoError(t, err)
	_, err = imageio.ReadFile(exported)
	require.NoError(t, err)
}

func TestBatchCommandBuiltinPresetsToFolder(t *testing.T) {
	root := t.TempDir()

	_, err := execute(t, "batch",
		"--asset-root", root,
		"--builtin-presets",
		"--format", "folder",
		"--dir", "presets",
		"--progress=false",
	)
	require.NoError(t, err)

	for _, name := range []string{"Clouds", "Marble", "Toon", "Grain"} {
		_, err := os.Stat(filepath.Join(root, "presets", name+".png"))
		assert.NoError(t, err, name)
	}

	// Import the folder back into a catalog.
	db := filepath.Join(root, "imported.db")
	_, err = execute(t, "catalog", "import", db, "--asset-root", root, "--input-dir", "presets")
	require.NoError(t, err)

	r, err := catalog.OpenReader(db)
	require.NoError(t, err)
	defer r.Close()
	e, err := r.ReadTexture("file_Marble")
	require.NoError(t, err)
	assert.Equal(t, 256, e.Params.Width)
}
