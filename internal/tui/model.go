// Package tui is a terminal host for a search session: a text input whose
// every edit is a query change, with the session's URL persisted between runs.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/hyperjump/instasearch/internal/render"
	"github.com/hyperjump/instasearch/internal/session"
)

const excerptLength = 120

// Location is the address bar line shown under the input.
type Location interface {
	Href() string
}

// Model is the bubbletea model for the search screen.
type Model struct {
	session  *session.Session
	location Location
	styles   *Styles
	input    textinput.Model

	cards    []render.Card
	message  string
	selected int
	chosen   *render.Card

	width  int
	height int
}

// New creates the model and attaches its input to s, so a query restored from
// the address bar shows up in the input with the cursor after it.
func New(s *session.Session, loc Location) *Model {
	ti := textinput.New()
	ti.Placeholder = "Search for anything..."
	ti.Prompt = "> "

	m := &Model{
		session:  s,
		location: loc,
		styles:   NewStyles(),
		input:    ti,
	}
	st := s.DisplayState()
	m.input.SetValue(st.Query)
	m.input.SetCursor(0)
	s.AttachInput(m)
	if !m.input.Focused() {
		m.input.Focus()
	}
	m.refresh()
	return m
}

// Focus implements session.Input.
func (m *Model) Focus() { m.input.Focus() }

// SetCursor implements session.Input. pos counts runes.
func (m *Model) SetCursor(pos int) { m.input.SetCursor(pos) }

// Value returns the text in the input.
func (m *Model) Value() string { return m.input.Value() }

// Cursor returns the input's cursor position in runes.
func (m *Model) Cursor() int { return m.input.Position() }

// Chosen returns the card picked with enter, or nil.
func (m *Model) Chosen() *render.Card { return m.chosen }

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-len(m.input.Prompt)-1, 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp, tea.KeyCtrlP:
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case tea.KeyDown, tea.KeyCtrlN:
			if m.selected < len(m.cards)-1 {
				m.selected++
			}
			return m, nil
		case tea.KeyEnter:
			if m.selected < len(m.cards) {
				c := m.cards[m.selected]
				m.chosen = &c
				return m, tea.Quit
			}
			return m, nil
		case tea.KeyTab:
			if s := m.session.DisplayState().Suggestion; s != "" {
				m.input.SetValue(s)
				m.input.CursorEnd()
				m.changed()
			}
			return m, nil
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.changed()
	}
	return m, cmd
}

func (m *Model) changed() {
	m.session.OnQueryChange(m.input.Value())
	m.selected = 0
	m.refresh()
}

func (m *Model) refresh() {
	st := m.session.DisplayState()
	m.cards = render.Cards(st.Results)
	m.message = session.CountMessage(st, m.session.MinQueryLength())
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("instasearch"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.location != nil {
		b.WriteString(m.styles.Href.Render(m.location.Href()))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.message != "" {
		b.WriteString(m.styles.Count.Render(m.message))
		b.WriteString("\n")
	}
	if s := m.session.DisplayState().Suggestion; s != "" {
		b.WriteString(m.styles.Suggestion.Render(fmt.Sprintf("Did you mean %q? (tab)", s)))
		b.WriteString("\n")
	}

	start, cards := m.visibleCards()
	for i, c := range cards {
		title := m.styles.CardTitle.Render(c.Title)
		if start+i == m.selected {
			title = m.styles.Selected.Render("▸ " + c.Title)
		}
		b.WriteString("\n")
		b.WriteString(title)
		b.WriteString("\n")
		if meta := cardMeta(c); meta != "" {
			b.WriteString(m.styles.Body.Render(m.styles.Meta.Render(meta)))
			b.WriteString("\n")
		}
		if c.Description != "" {
			b.WriteString(m.styles.Body.Render(c.Excerpt(excerptLength)))
			b.WriteString("\n")
		}
	}

	b.WriteString(m.styles.Help.Render("↑/↓ select • enter open • tab accept suggestion • esc quit"))
	return b.String()
}

// visibleCards returns the window of cards that fits the terminal, scrolled
// so the selection is visible, and the index of its first card.
func (m *Model) visibleCards() (int, []render.Card) {
	if m.height <= 0 || len(m.cards) == 0 {
		return 0, m.cards
	}
	fit := max((m.height-10)/4, 1)
	start := max(m.selected-fit+1, 0)
	end := min(start+fit, len(m.cards))
	return start, m.cards[start:end]
}

func cardMeta(c render.Card) string {
	var parts []string
	if d := c.DateLabel(); d != "" {
		parts = append(parts, d)
	}
	if c.ReadingTime != "" {
		parts = append(parts, c.ReadingTime)
	}
	if len(c.Tags) > 0 {
		parts = append(parts, "#"+strings.Join(c.Tags, " #"))
	}
	return strings.Join(parts, " · ")
}

// Run shows the search screen until the user quits and returns the chosen card, if any.
func Run(m *Model, opts ...tea.ProgramOption) (*render.Card, error) {
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return nil, fmt.Errorf("failed to run terminal UI: %w", err)
	}
	if fm, ok := final.(*Model); ok {
		return fm.Chosen(), nil
	}
	return nil, nil
}
