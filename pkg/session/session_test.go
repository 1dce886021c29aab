package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/chronicle-rpg/pkg/dialogue"
	"github.com/jwebster45206/chronicle-rpg/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `{
	"start": "hail",
	"nodes": {
		"hail": {"text": "Hail, pilot.", "choices": [
			{"text": "Dock.", "next": "docked", "effect": {"set_flag": {"docked": true}}},
			{"text": "Leave.", "next": null}
		]},
		"docked": {"text": "Docking granted.", "choices": [{"text": "Undock.", "next": null}]}
	}
}`

func TestSession_RoundTripsPosition(t *testing.T) {
	graph, err := dialogue.Parse([]byte(doc), dialogue.FormatJSON)
	require.NoError(t, err)

	gs := state.NewGameState()
	s := New("hail.json", gs.ID, graph)
	assert.Equal(t, "hail", s.NodeID)
	assert.NotEqual(t, uuid.Nil, s.ID)
	assert.False(t, s.Finished())

	tree := s.Tree(graph, gs)
	tree.Advance(0)
	s.Sync(tree)
	assert.Equal(t, "docked", s.NodeID)
	assert.True(t, gs.FlagSet("docked"))

	resumed := s.Tree(graph, gs)
	node, ok := resumed.CurrentNode()
	require.True(t, ok)
	assert.Equal(t, "Docking granted.", node.Text)

	resumed.Advance(0)
	s.Sync(resumed)
	assert.True(t, s.Finished())
	assert.True(t, s.Tree(graph, gs).IsFinished())
}

func TestSession_EmptyNodeIDIsNotFinished(t *testing.T) {
	graph, err := dialogue.Parse([]byte(`{
		"start": "",
		"nodes": {
			"": {"text": "Static on the channel.", "choices": [{"text": "Hang up.", "next": null}]}
		}
	}`), dialogue.FormatJSON)
	require.NoError(t, err)

	gs := state.NewGameState()
	s := New("static.json", gs.ID, graph)
	assert.False(t, s.Finished())

	tree := s.Tree(graph, gs)
	s.Sync(tree)
	assert.False(t, s.Finished())
	assert.Equal(t, "Static on the channel.", tree.View().Text)

	tree.Advance(0)
	s.Sync(tree)
	assert.True(t, s.Finished())
	assert.True(t, s.Tree(graph, gs).IsFinished())
}

func TestSession_RemovedNodeResumesFinished(t *testing.T) {
	graph, err := dialogue.Parse([]byte(doc), dialogue.FormatJSON)
	require.NoError(t, err)

	gs := state.NewGameState()
	s := New("hail.json", gs.ID, graph)
	s.NodeID = "airlock"

	assert.True(t, s.Tree(graph, gs).IsFinished())
}
