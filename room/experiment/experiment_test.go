package experiment

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateID(t *testing.T) {
	assert := assert.New(t)
	now := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)
	id := GenerateID(now)
	assert.True(strings.HasSuffix(id, "-20240301-123045"), id)
	assert.Equal(id, GenerateID(now))

	name := GenerateName(rand.New(rand.NewSource(1)))
	parts := strings.Split(name, "-")
	require.Len(t, parts, 2)
	assert.Contains(adjectives, parts[0])
	assert.Contains(nouns, parts[1])
}

func TestCreate(t *testing.T) {
	assert := assert.New(t)
	root := filepath.Join(t.TempDir(), "runs")

	dir, err := Create(root)
	require.NoError(t, err)
	assert.DirExists(dir.Path)
	assert.True(filepath.IsAbs(dir.Path))
	assert.Equal(filepath.Join(dir.Path, "impulses.json"), dir.File("impulses.json"))

	target, err := os.Readlink(filepath.Join(root, LatestSymlink))
	require.NoError(t, err)
	assert.Equal(dir.ID, target)

	src := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(src, []byte("rays: 1\n"), 0644))
	require.NoError(t, dir.CopyFile(src))
	copied, err := os.ReadFile(dir.File("config.yaml"))
	require.NoError(t, err)
	assert.Equal("rays: 1\n", string(copied))

	assert.Error(dir.CopyFile(filepath.Join(root, "missing.yaml")))
}
