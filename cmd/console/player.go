package main

import (
	"context"

	"github.com/jwebster45206/chronicle-rpg/pkg/dialogue"
	"github.com/jwebster45206/chronicle-rpg/pkg/state"
)

// Turn is what the UI renders after every action.
type Turn struct {
	View      dialogue.View
	GameState *state.GameState
	Choice    string // Text of the choice just taken, empty if none
}

// Player drives one dialogue, either in process or through the API.
type Player interface {
	Title() string
	Current(ctx context.Context) (*Turn, error)
	Choose(ctx context.Context, index int) (*Turn, error)
	Reset(ctx context.Context) (*Turn, error)
}

// localPlayer runs a dialogue file in process against a fresh game state.
type localPlayer struct {
	file      string
	tree      *dialogue.Tree
	gameState *state.GameState
}

func newLocalPlayer(path string) (*localPlayer, error) {
	gs := state.NewGameState()
	tree, err := dialogue.Load(path, gs)
	if err != nil {
		return nil, err
	}
	return &localPlayer{file: path, tree: tree, gameState: gs}, nil
}

func (p *localPlayer) Title() string {
	return p.file
}

func (p *localPlayer) Current(ctx context.Context) (*Turn, error) {
	return &Turn{View: p.tree.View(), GameState: p.gameState}, nil
}

func (p *localPlayer) Choose(ctx context.Context, index int) (*Turn, error) {
	turn := &Turn{GameState: p.gameState}
	if choice := p.tree.Advance(index); choice != nil {
		turn.Choice = choice.Text
	}
	turn.View = p.tree.View()
	return turn, nil
}

func (p *localPlayer) Reset(ctx context.Context) (*Turn, error) {
	p.tree.Reset()
	return p.Current(ctx)
}
