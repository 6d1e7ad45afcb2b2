package injector

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/cavefish/internal/config"
)

func loadScene(t *testing.T) *config.File {
	t.Helper()
	f, err := config.LoadFile(filepath.Join("..", "config", "testdata", "cave.yaml"))
	require.NoError(t, err)
	f.World.Duration = 0.1
	return f
}

func TestInitializeAppWiresEverything(t *testing.T) {
	f := loadScene(t)
	screen := tcell.NewSimulationScreen("UTF-8")

	a, cleanup, err := InitializeApp(f, Options{TUI: true, Screen: screen})
	require.NoError(t, err)
	defer cleanup()

	require.NotNil(t, a.Server)
	require.NotNil(t, a.Viewer)
	assert.Len(t, a.World.FishIDs(), 6)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Run(ctx))
	assert.Positive(t, a.World.Tick())
}

func TestInitializeAppWithoutServerOrViewer(t *testing.T) {
	f := loadScene(t)
	f.Server.Listen = ""

	a, cleanup, err := InitializeApp(f, Options{})
	require.NoError(t, err)
	defer cleanup()
	assert.Nil(t, a.Server)
	assert.Nil(t, a.Viewer)
}

func TestInitializeAppReportsBadScenes(t *testing.T) {
	f := loadScene(t)
	f.Obstacles = append(f.Obstacles, config.Obstacle{Kind: "sphere", Radius: -1})
	_, _, err := InitializeApp(f, Options{})
	assert.Error(t, err)

	f = loadScene(t)
	f.Submarines = append(f.Submarines, f.Submarines[0])
	_, _, err = InitializeApp(f, Options{})
	assert.Error(t, err)
}

func TestSampleSceneLoads(t *testing.T) {
	path := filepath.Join("..", "..", "scenes", "cave.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skip("sample scene not present")
	}
	f, err := config.LoadFile(path)
	require.NoError(t, err)
	f.Server.Listen = ""
	_, cleanup, err := InitializeApp(f, Options{})
	require.NoError(t, err)
	cleanup()
}
