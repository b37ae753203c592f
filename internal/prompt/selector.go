// Package prompt renders interactive single-select questions in the terminal.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCancelled is returned when the user leaves the prompt without choosing
var ErrCancelled = errors.New("selection cancelled")

// Choice is one selectable entry: Name is displayed, Value is returned
type Choice struct {
	Name  string
	Value any
}

// ListQuestion is a single-select list question
type ListQuestion struct {
	Name    string
	Message string
	Choices []Choice
}

var (
	colorPrimary = lipgloss.Color("#D4A574")
	colorText    = lipgloss.Color("#C0CAF5")

	styleTitle    = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleSelected = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).PaddingLeft(2)
	styleChoice   = lipgloss.NewStyle().Foreground(colorText).PaddingLeft(2)
)

type keyMap struct {
	Select key.Binding
	Cancel key.Binding
}

var keys = keyMap{
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "cancel"),
	),
}

type choiceItem struct {
	choice Choice
}

func (i choiceItem) FilterValue() string { return i.choice.Name }

type choiceDelegate struct{}

func (d choiceDelegate) Height() int                             { return 1 }
func (d choiceDelegate) Spacing() int                            { return 0 }
func (d choiceDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d choiceDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(choiceItem)
	if !ok {
		return
	}

	if index == m.Index() {
		fmt.Fprint(w, styleSelected.Render("> "+item.choice.Name))
		return
	}
	fmt.Fprint(w, styleChoice.Render("  "+item.choice.Name))
}

// model is the bubbletea model behind a ListQuestion
type model struct {
	list     list.Model
	chosen   *Choice
	quitting bool
}

func newModel(q ListQuestion, width, height int) model {
	items := make([]list.Item, len(q.Choices))
	for i, c := range q.Choices {
		items[i] = choiceItem{choice: c}
	}

	l := list.New(items, choiceDelegate{}, width, height)
	l.Title = q.Message
	l.Styles.Title = styleTitle
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return model{list: l}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Keys belong to the filter input while filtering
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, keys.Select):
			if item, ok := m.list.SelectedItem().(choiceItem); ok {
				choice := item.choice
				m.chosen = &choice
				m.quitting = true
				return m, tea.Quit
			}
		case key.Matches(msg, keys.Cancel):
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	return m.list.View()
}

// Selector asks list questions on a terminal
type Selector struct {
	in  io.Reader
	out io.Writer
}

// NewSelector creates a selector reading stdin and drawing on stderr
func NewSelector() *Selector {
	return &Selector{in: os.Stdin, out: os.Stderr}
}

// Select shows the question and blocks until a choice is made or the prompt is cancelled
func (s *Selector) Select(ctx context.Context, q ListQuestion) (Choice, error) {
	if len(q.Choices) == 0 {
		return Choice{}, fmt.Errorf("question %q has no choices", q.Name)
	}

	height := len(q.Choices) + 6
	p := tea.NewProgram(
		newModel(q, 80, height),
		tea.WithInput(s.in),
		tea.WithOutput(s.out),
		tea.WithContext(ctx),
	)

	final, err := p.Run()
	if err != nil {
		return Choice{}, fmt.Errorf("failed to run prompt: %w", err)
	}

	result, ok := final.(model)
	if !ok || result.chosen == nil {
		return Choice{}, ErrCancelled
	}

	return *result.chosen, nil
}
