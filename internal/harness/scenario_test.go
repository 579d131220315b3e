package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vlayer/internal/input"
)

func TestLoadScenario_TapAndDrag(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/tap_and_drag.yaml")
	require.NoError(t, err)

	assert.Equal(t, "tap_and_drag", s.Name)
	assert.Equal(t, 8, s.Frames)
	assert.True(t, s.Terminate)
	require.Len(t, s.Touches, 3)
	assert.Equal(t, input.PointMotion, s.Touches[1].State)
	assert.Len(t, s.Assertions, 7)

	format, err := s.LogFormat()
	require.NoError(t, err)
	assert.Equal(t, input.FormatFramed, format)
}

func TestScenario_Script(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/tap_and_drag.yaml")
	require.NoError(t, err)

	script := s.Script()
	assert.Equal(t, []uint32{2, 5}, script.Frames())
	require.Len(t, script[2], 2)
	assert.Equal(t, uint32(32), script[2][0].Time, "time defaults to frame x 16ms")
	assert.Equal(t, uint32(80), script[5][0].Time)
}

func TestTouch_ExplicitTime(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: t
description: d
frames: 2
touches:
  - {frame: 1, state: 0, x: 1, y: 1, time: 7}
`))
	require.NoError(t, err)
	assert.Equal(t, uint32(7), s.Touches[0].Event().Time)
	assert.Equal(t, input.PointStarted, s.Touches[0].State)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: d\nframes: 1\nassertion: []\n",
			wantErr: "field assertion not found",
		},
		{
			name:    "missing name",
			yaml:    "description: d\nframes: 1\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: x\nframes: 1\n",
			wantErr: "description is required",
		},
		{
			name:    "no frames",
			yaml:    "name: x\ndescription: d\n",
			wantErr: "frames must be positive",
		},
		{
			name:    "bad format",
			yaml:    "name: x\ndescription: d\nframes: 1\nformat: csv\n",
			wantErr: "unknown log format",
		},
		{
			name:    "frame zero",
			yaml:    "name: x\ndescription: d\nframes: 1\ntouches: [{frame: 0, state: started}]\n",
			wantErr: "frames start at 1",
		},
		{
			name:    "touch past last frame",
			yaml:    "name: x\ndescription: d\nframes: 2\ntouches: [{frame: 3, state: started}]\n",
			wantErr: "past the last frame",
		},
		{
			name:    "bad state",
			yaml:    "name: x\ndescription: d\nframes: 2\ntouches: [{frame: 1, state: pressed}]\n",
			wantErr: "unknown point state",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: x\ndescription: d\nframes: 1\nassertions: [{type: final_state}]\n",
			wantErr: "unknown assertion type",
		},
		{
			name:    "frame_count without frame",
			yaml:    "name: x\ndescription: d\nframes: 1\nassertions: [{type: frame_count, count: 1}]\n",
			wantErr: "requires frame",
		},
		{
			name:    "unknown phase",
			yaml:    "name: x\ndescription: d\nframes: 1\nassertions: [{type: traces_match, phase: live}]\n",
			wantErr: "unknown phase",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
