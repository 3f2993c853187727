package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/boothdesk/internal/collection"
	"github.com/verte-zerg/boothdesk/internal/model"
)

type pickerPurpose int

const (
	pickDistrict pickerPurpose = iota
	pickScope
	pickTarget
)

// picker is a filterable option list shown in a modal.
type picker struct {
	purpose pickerPurpose
	kind    model.Kind
	title   string
	items   *collection.Collection[model.Option]
	input   textinput.Model
	cursor  int
}

func optionFields(o model.Option) []string {
	return []string{o.Number, o.Name, o.Type}
}

func newPicker(purpose pickerPurpose, kind model.Kind, title string, options []model.Option) *picker {
	p := &picker{
		purpose: purpose,
		kind:    kind,
		title:   title,
		items:   collection.New(func(o model.Option) int64 { return o.ID }),
		input:   newInput("Filter: "),
	}
	p.items.SetMaster(options)
	p.input.Focus()
	return p
}

func newInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorStatic)
	return input
}

func (p *picker) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "ctrl+p":
		p.cursor = maxInt(0, p.cursor-1)
		return nil
	case "down", "ctrl+n":
		p.cursor = minInt(maxInt(0, p.items.Len()-1), p.cursor+1)
		return nil
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	p.items.SetPredicate(filterSearch, collection.Contains(p.input.Value(), optionFields))
	if p.cursor >= p.items.Len() {
		p.cursor = maxInt(0, p.items.Len()-1)
	}
	return cmd
}

func (p *picker) current() (model.Option, bool) {
	return p.items.At(p.cursor)
}

func optionLabel(o model.Option) string {
	label := o.Name
	if o.Number != "" {
		label = o.Number + " " + label
	}
	if o.Type != "" {
		label += " (" + o.Type + ")"
	}
	return label
}

func (p *picker) view(width, height int) string {
	inner := modalInnerWidth(width)
	p.input.Width = maxInt(10, inner-lipgloss.Width(p.input.Prompt))
	lines := []string{cardValueStyle.Render(p.title), p.input.View(), ""}
	visible := p.items.Visible()
	rows := maxInt(1, minInt(height-10, 15))
	start := 0
	if p.cursor >= rows {
		start = p.cursor - rows + 1
	}
	if len(visible) == 0 {
		lines = append(lines, headerStyle.Render("No matches."))
	}
	for i := start; i < len(visible) && i < start+rows; i++ {
		line := truncateLine(optionLabel(visible[i]), inner-2)
		if i == p.cursor {
			lines = append(lines, cursorStyle.Render("> "+line))
		} else {
			lines = append(lines, "  "+line)
		}
	}
	lines = append(lines, "", headerStyle.Render(fmt.Sprintf("%d of %d  up/down: move  enter: choose  esc: cancel", len(visible), p.items.MasterLen())))
	box := modalStyle.Width(modalWidth(width)).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
