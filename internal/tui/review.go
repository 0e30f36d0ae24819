package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"drivewatch/internal/extract"
)

// Item is one candidate file shown in the review list.
type Item struct {
	FileID    string
	Name      string
	Type      extract.FileType
	Created   time.Time
	Processed bool
}

// Selectable reports whether the operator can pick this file for processing.
func (i Item) Selectable() bool {
	return !i.Processed && i.Type != extract.TypeUnknown && extract.IsSpreadsheet(i.Name)
}

// model represents the review TUI model
type model struct {
	items    []Item
	selected map[int]bool

	cursor    int
	confirmed bool

	// Screen dimensions
	width  int
	height int

	// Styling
	titleStyle     lipgloss.Style
	cursorStyle    lipgloss.Style
	normalStyle    lipgloss.Style
	selectedStyle  lipgloss.Style
	processedStyle lipgloss.Style
	helpStyle      lipgloss.Style
}

func initialModel(items []Item) model {
	return model{
		items:    items,
		selected: make(map[int]bool),

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Align(lipgloss.Center),
		cursorStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 1),
		normalStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Padding(0, 1),
		selectedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("40")).
			Padding(0, 1),
		processedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Strikethrough(true).
			Padding(0, 1),
		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.selected = make(map[int]bool)
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}

		case " ":
			if m.cursor < len(m.items) && m.items[m.cursor].Selectable() {
				m.selected[m.cursor] = !m.selected[m.cursor]
			}

		case "a":
			for i, item := range m.items {
				if item.Selectable() {
					m.selected[i] = true
				}
			}

		case "n":
			m.selected = make(map[int]bool)

		case "enter":
			m.confirmed = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(m.titleStyle.Render("Drive Files — Review"))
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		b.WriteString(m.normalStyle.Render("No files in the poll window."))
		b.WriteString("\n")
	}

	for i, item := range m.items {
		line := m.renderItem(i, item)
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.helpStyle.Render(
		"↑/↓ move  space select  a all  n none  enter process  q quit"))
	b.WriteString("\n")
	b.WriteString(m.helpStyle.Render(
		fmt.Sprintf("%d selected", len(m.selectedItems()))))

	return b.String()
}

func (m model) renderItem(i int, item Item) string {
	marker := "[ ]"
	if m.selected[i] {
		marker = "[x]"
	}

	label := fmt.Sprintf("%s %s", marker, m.describeItem(item))

	switch {
	case i == m.cursor:
		return m.cursorStyle.Render(label)
	case item.Processed:
		return m.processedStyle.Render(label)
	case m.selected[i]:
		return m.selectedStyle.Render(label)
	default:
		return m.normalStyle.Render(label)
	}
}

func (m model) describeItem(item Item) string {
	typeLabel := string(item.Type)
	if item.Type == extract.TypeUnknown {
		typeLabel = "--"
	}

	desc := fmt.Sprintf("%-4s %s", typeLabel, item.Name)
	if !item.Created.IsZero() {
		desc += "  " + item.Created.Local().Format("2006-01-02 15:04")
	}
	if item.Processed {
		desc += "  (written)"
	}
	return desc
}

func (m model) selectedItems() []Item {
	var picked []Item
	for i, item := range m.items {
		if m.selected[i] {
			picked = append(picked, item)
		}
	}
	return picked
}

// Run shows the review list and returns the files the operator picked.
// A quit without confirming returns an empty selection.
func Run(items []Item) ([]Item, error) {
	program := tea.NewProgram(initialModel(items), tea.WithAltScreen())

	finalModel, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to run review tool: %w", err)
	}

	m, ok := finalModel.(model)
	if !ok {
		return nil, fmt.Errorf("unexpected model type")
	}
	if !m.confirmed {
		return nil, nil
	}
	return m.selectedItems(), nil
}
