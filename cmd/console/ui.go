package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

const (
	SpeakerName = "Contact"
	PlayerName  = "You"
)

type entryKind int

const (
	entryNode entryKind = iota
	entryChoice
	entryNotice
)

type logEntry struct {
	kind entryKind
	text string
}

func (e logEntry) plain() string {
	switch e.kind {
	case entryNode:
		return SpeakerName + ": " + e.text
	case entryChoice:
		return PlayerName + ": " + e.text
	default:
		return e.text
	}
}

type action int

const (
	actionStart action = iota
	actionChoose
	actionReset
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	player       Player
	turn         *Turn
	log          []logEntry
	chatViewport viewport.Model
	metaViewport viewport.Model
	ready        bool
	width        int
	height       int
	err          error
	status       string
	loading      bool
}

type turnMsg struct {
	action action
	turn   *Turn
	err    error
}

type copiedMsg struct {
	lines int
	err   error
}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(player Player) ConsoleUI {
	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	return ConsoleUI{
		player:       player,
		chatViewport: chatVp,
		metaViewport: viewport.New(20, 20),
		loading:      true,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.run(actionStart, m.player.Current)
}

func (m ConsoleUI) run(a action, fn func(ctx context.Context) (*Turn, error)) tea.Cmd {
	return func() tea.Msg {
		turn, err := fn(context.Background())
		return turnMsg{action: a, turn: turn, err: err}
	}
}

func (m ConsoleUI) choose(index int) tea.Cmd {
	return m.run(actionChoose, func(ctx context.Context) (*Turn, error) {
		return m.player.Choose(ctx, index)
	})
}

func (m ConsoleUI) copyTranscript() tea.Cmd {
	lines := m.transcript()
	return func() tea.Msg {
		return copiedMsg{lines: len(lines), err: clipboard.WriteAll(strings.Join(lines, "\n"))}
	}
}

// transcript is the plain-text log, one line per entry.
func (m ConsoleUI) transcript() []string {
	lines := make([]string, 0, len(m.log))
	for _, e := range m.log {
		lines = append(lines, e.plain())
	}
	return lines
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var vpCmd, mvCmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.70) - 4
		metaWidth := m.width - chatWidth - 6
		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 5
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.ready = true
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		}

		key := msg.String()
		switch {
		case key == "q":
			return m, tea.Quit
		case m.loading:
			return m, nil
		case key == "r":
			m.loading = true
			m.status = ""
			return m, m.run(actionReset, m.player.Reset)
		case key == "c":
			return m, m.copyTranscript()
		case len(key) == 1 && key[0] >= '1' && key[0] <= '9':
			if m.turn != nil && m.turn.View.Finished {
				m.status = "The dialogue has ended. Press r to start over."
				m.refresh()
				return m, nil
			}
			m.loading = true
			m.status = ""
			return m, m.choose(int(key[0] - '1'))
		}

	case turnMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.refresh()
			return m, nil
		}
		m.err = nil
		m.apply(msg.action, msg.turn)
		m.refresh()
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.status = "Copy failed: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("Copied %d lines to the clipboard.", msg.lines)
		}
		m.refresh()
		return m, nil
	}

	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)
	return m, tea.Batch(vpCmd, mvCmd)
}

// apply records a completed action in the log and makes turn current.
func (m *ConsoleUI) apply(a action, turn *Turn) {
	switch a {
	case actionChoose:
		if turn.Choice != "" {
			m.log = append(m.log, logEntry{kind: entryChoice, text: turn.Choice})
		} else {
			m.log = append(m.log, logEntry{kind: entryNotice, text: "[No such choice]"})
		}
	case actionReset:
		m.log = append(m.log, logEntry{kind: entryNotice, text: "[Dialogue restarted]"})
	}

	if turn.View.Finished {
		m.log = append(m.log, logEntry{kind: entryNotice, text: "[End of dialogue]"})
	} else {
		m.log = append(m.log, logEntry{kind: entryNode, text: turn.View.Text})
	}
	m.turn = turn
}

func (m *ConsoleUI) refresh() {
	m.chatViewport.SetContent(m.writeChatContent())
	m.chatViewport.GotoBottom()
	m.metaViewport.SetContent(m.writeMetadata())
}

// writeChatContent builds the dialogue log and the current choices for the viewport width
func (m ConsoleUI) writeChatContent() string {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding
	if chatWidth < 20 {
		chatWidth = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("CHRONICLE RPG") + "  " + promptStyle.Render(m.player.Title()) + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth)) + "\n\n")

	for _, e := range m.log {
		switch e.kind {
		case entryNode:
			content.WriteString(speakerStyle.Render(SpeakerName+":") + " " + wordwrap.String(e.text, chatWidth-len(SpeakerName)-2) + "\n\n")
		case entryChoice:
			content.WriteString(userStyle.Render(PlayerName+": ") + wordwrap.String(e.text, chatWidth-len(PlayerName)-2) + "\n\n")
		default:
			content.WriteString(noticeStyle.Render(e.text) + "\n\n")
		}
	}

	if m.turn != nil && !m.turn.View.Finished {
		if len(m.turn.View.Choices) == 0 {
			content.WriteString(promptStyle.Render("(no choices: press any number to leave)") + "\n")
		}
		for _, c := range m.turn.View.Choices {
			line := fmt.Sprintf("%d. %s", c.Index+1, c.Text)
			content.WriteString(choiceStyle.Render(wordwrap.String(line, chatWidth)) + "\n")
		}
		content.WriteString("\n")
	}

	if m.err != nil {
		content.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
	}
	if m.status != "" {
		content.WriteString(promptStyle.Render(m.status) + "\n")
	}
	return content.String()
}

func (m ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("GAME STATE") + "\n\n")

	if m.turn == nil || m.turn.GameState == nil {
		content.WriteString("Loading...\n")
		return content.String()
	}
	gs := m.turn.GameState

	content.WriteString("Game ID:\n")
	content.WriteString(gs.ID.String()[:8] + "...\n\n")

	content.WriteString("Node:\n")
	if m.turn.View.Finished {
		content.WriteString("(finished)\n\n")
	} else {
		content.WriteString(m.turn.View.NodeID + "\n\n")
	}

	content.WriteString(gs.DescribeInventory() + "\n\n")
	content.WriteString("Standings:\n" + gs.DescribeStandings() + "\n\n")

	content.WriteString("Flags:\n")
	if len(gs.Flags) == 0 {
		content.WriteString("None set\n")
	} else {
		names := make([]string, 0, len(gs.Flags))
		for name := range gs.Flags {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			content.WriteString(fmt.Sprintf("• %s: %v\n", name, gs.Flags[name]))
		}
	}

	content.WriteString("\n")
	content.WriteString("Commands:\n")
	content.WriteString("• 1-9: Choose\n")
	content.WriteString("• r: Restart\n")
	content.WriteString("• c: Copy transcript\n")
	content.WriteString("• q: Quit\n")

	return content.String()
}

func (m ConsoleUI) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.70) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(m.chatViewport.View())
	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(m.metaViewport.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}
