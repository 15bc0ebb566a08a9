package ui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/list"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/iamcompact/iamvet-cli/internal/apperr"
)

// CriterionChoice is one catalog entry offered by the selector.
type CriterionChoice struct {
	Name   string
	Kind   string
	Detail string // target and range, preformatted
}

type criterionItem struct {
	choice   CriterionChoice
	selected bool
}

func (i criterionItem) Title() string {
	box := Dim.Render("[ ] ")
	if i.selected {
		box = Success.Render("[✓] ")
	}
	return box + i.choice.Name
}

func (i criterionItem) Description() string {
	return Dim.Render(i.choice.Kind+" · ") + i.choice.Detail
}

func (i criterionItem) FilterValue() string { return i.choice.Name }

// criteriaSelectorModel picks a subset of catalog criteria. All entries
// start selected.
type criteriaSelectorModel struct {
	search    textinput.Model
	list      list.Model
	all       []criterionItem
	quitting  bool
	confirmed bool
}

func newCriteriaSelector(choices []CriterionChoice) *criteriaSelectorModel {
	ti := textinput.New()
	ti.Placeholder = "Filter criteria..."
	ti.CharLimit = 120
	ti.SetWidth(50)

	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorHighlight).
		BorderForeground(ColorPrimary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(ColorTextDim).
		BorderForeground(ColorPrimary)

	l := list.New(nil, delegate, 80, 20)
	l.Title = "Select criteria to vet"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 0, 1, 0)

	m := &criteriaSelectorModel{search: ti, list: l}
	for _, c := range choices {
		m.all = append(m.all, criterionItem{choice: c, selected: true})
	}
	m.refresh()
	return m
}

// refresh shows the entries whose name contains the filter text.
func (m *criteriaSelectorModel) refresh() {
	q := strings.ToLower(strings.TrimSpace(m.search.Value()))
	var items []list.Item
	for _, it := range m.all {
		if q == "" || strings.Contains(strings.ToLower(it.choice.Name), q) {
			items = append(items, it)
		}
	}
	m.list.SetItems(items)
}

func (m *criteriaSelectorModel) toggle(name string) {
	for i := range m.all {
		if m.all[i].choice.Name == name {
			m.all[i].selected = !m.all[i].selected
		}
	}
	m.refresh()
}

func (m *criteriaSelectorModel) setAll(v bool) {
	for i := range m.all {
		m.all[i].selected = v
	}
	m.refresh()
}

func (m *criteriaSelectorModel) Init() tea.Cmd { return nil }

func (m *criteriaSelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		if m.search.Focused() {
			switch key {
			case "ctrl+c", "esc":
				m.quitting = true
				return m, tea.Quit
			case "enter", "down", "up":
				m.search.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			m.refresh()
			return m, cmd
		}
		switch key {
		case "ctrl+c", "esc", "q":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			m.confirmed = true
			m.quitting = true
			return m, tea.Quit
		case "space", " ":
			if it, ok := m.list.SelectedItem().(criterionItem); ok {
				m.toggle(it.choice.Name)
			}
			return m, nil
		case "a":
			m.setAll(true)
			return m, nil
		case "n":
			m.setAll(false)
			return m, nil
		case "/":
			m.search.Focus()
			return m, textinput.Blink
		}

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *criteriaSelectorModel) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}
	var b strings.Builder
	b.WriteString(Dim.Render("Filter: "))
	b.WriteString(m.search.View())
	b.WriteString("\n\n")
	b.WriteString(m.list.View())
	b.WriteString("\n\n")

	n := len(m.Selected())
	b.WriteString(fmt.Sprintf("%s %s\n", Success.Render("Selected:"),
		Highlight.Render(fmt.Sprintf("%d/%d criteria", n, len(m.all)))))
	if m.search.Focused() {
		b.WriteString(Muted.Render("enter/↓: back to list · esc: cancel"))
	} else {
		b.WriteString(Muted.Render("space: toggle · a/n: all/none · /: filter · enter: confirm · esc: cancel"))
	}
	return tea.NewView(b.String())
}

// Selected returns the selected names in catalog order.
func (m *criteriaSelectorModel) Selected() []string {
	var out []string
	for _, it := range m.all {
		if it.selected {
			out = append(out, it.choice.Name)
		}
	}
	return out
}

// RunCriteriaSelector lets the user pick criteria interactively. It
// returns apperr.ErrCancelled when the user backs out or selects nothing.
func RunCriteriaSelector(choices []CriterionChoice) ([]string, error) {
	res, err := tea.NewProgram(newCriteriaSelector(choices)).Run()
	if err != nil {
		return nil, err
	}
	m := res.(*criteriaSelectorModel)
	if !m.confirmed {
		return nil, apperr.ErrCancelled
	}
	sel := m.Selected()
	if len(sel) == 0 {
		return nil, apperr.ErrCancelled
	}
	return sel, nil
}
