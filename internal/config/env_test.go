package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_EmptyAllowList(t *testing.T) {
	t.Setenv("VLAYER_INSTANCE_LAYERS", "")
	t.Setenv("DESKTOP_PREFIX", "/usr")

	e, err := LoadEnv()
	require.NoError(t, err)

	_, present := e.AllowList()
	assert.False(t, present, "empty allow-list is treated as absent")
	assert.Equal(t, "/usr/share/vlayer/layers", e.SearchPaths()[2])
}

func TestLoadEnv_AllowList(t *testing.T) {
	t.Setenv("VLAYER_INSTANCE_LAYERS", "layerB::layerD:")

	e, err := LoadEnv()
	require.NoError(t, err)

	list, present := e.AllowList()
	assert.True(t, present)
	assert.Equal(t, []string{"layerB", "layerD"}, list)
}

func TestEnv_SearchPaths(t *testing.T) {
	e := Env{DesktopPrefix: "/opt/desk"}
	assert.Equal(t, []string{".", "/tmp", "/opt/desk/share/vlayer/layers"}, e.SearchPaths())

	assert.Equal(t, "/usr/share/vlayer/layers", Env{}.SearchPaths()[2])
}
