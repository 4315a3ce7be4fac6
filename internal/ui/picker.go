package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// pickerKeyMap defines key bindings for the source picker
type pickerKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Choose key.Binding
	Filter key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k pickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Choose, k.Filter, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k pickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Choose},
		{k.Filter, k.Quit},
	}
}

func newPickerKeyMap() pickerKeyMap {
	return pickerKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Choose: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "switch input"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "cancel"),
		),
	}
}

// sourceItem wraps a source name for use with bubbles/list
type sourceItem struct {
	name    string
	current bool
}

// FilterValue implements list.Item
func (s sourceItem) FilterValue() string {
	return s.name
}

// sourceDelegate renders one source per line
type sourceDelegate struct{}

func (d sourceDelegate) Height() int { return 1 }

func (d sourceDelegate) Spacing() int { return 0 }

func (d sourceDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d sourceDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	src, ok := item.(sourceItem)
	if !ok {
		return
	}

	line := "    " + src.name
	if index == m.Index() {
		line = SelectedItemStyle.Render("  " + CursorMarker + " " + src.name)
	}
	if src.current {
		line += " " + CurrentItemStyle.Render("(current)")
	}
	_, _ = fmt.Fprint(w, line)
}

// PickerModel is a Bubble Tea model for choosing an input source.
type PickerModel struct {
	list      list.Model
	keys      pickerKeyMap
	help      help.Model
	choice    string
	cancelled bool
}

// NewPickerModel creates a picker over sources with the cursor on current.
// current may be empty or a code the catalog does not name.
func NewPickerModel(title string, sources []string, current string) PickerModel {
	items := make([]list.Item, len(sources))
	selected := 0
	for i, name := range sources {
		items[i] = sourceItem{name: name, current: name == current}
		if name == current {
			selected = i
		}
	}

	height := len(sources) + 6 // Title and pagination
	if height > 20 {
		height = 20
	}

	l := list.New(items, sourceDelegate{}, MinTerminalWidth, height)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	l.Select(selected)

	return PickerModel{
		list: l,
		keys: newPickerKeyMap(),
		help: help.New(),
	}
}

// Init implements tea.Model
func (m PickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		// While typing a filter, keys belong to the list
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.cancelled = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Choose):
			if item, ok := m.list.SelectedItem().(sourceItem); ok {
				m.choice = item.name
				return m, tea.Quit
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model
func (m PickerModel) View() string {
	if m.choice != "" || m.cancelled {
		return ""
	}
	return m.list.View() + "\n" + m.help.View(m.keys)
}

// Choice returns the chosen source. ok is false when the user cancelled.
func (m PickerModel) Choice() (string, bool) {
	if m.cancelled || m.choice == "" {
		return "", false
	}
	return m.choice, true
}

// PickSource runs the picker on the terminal and returns the chosen source.
func PickSource(title string, sources []string, current string) (string, bool, error) {
	final, err := tea.NewProgram(NewPickerModel(title, sources, current)).Run()
	if err != nil {
		return "", false, err
	}
	choice, ok := final.(PickerModel).Choice()
	return choice, ok, nil
}
