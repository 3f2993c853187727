package dashboard

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/boothdesk/internal/collection"
	"github.com/verte-zerg/boothdesk/internal/model"
	"github.com/verte-zerg/boothdesk/internal/selection"
	"github.com/verte-zerg/boothdesk/internal/stats"
)

// Predicate keys.
const (
	filterSearch = "search"
	filterType   = "type"
)

// Search modes.
const (
	searchSubstring = "substring"
	searchFuzzy     = "fuzzy"
)

var (
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

// listView is the one selection view shared by booths and wards. It keeps the
// filtered collection, the selection and the cursor for a single kind.
type listView struct {
	kind   model.Kind
	items  *collection.Collection[model.Entity]
	sel    *selection.Controller
	cursor int
	offset int
	scope  model.Option
	loaded bool
	query  string
	mode   string
	typ    string
	types  []string
}

func newListView(kind model.Kind, mode string) *listView {
	if mode != searchFuzzy {
		mode = searchSubstring
	}
	return &listView{
		kind:  kind,
		items: collection.New(func(e model.Entity) int64 { return e.ID }),
		sel:   selection.New(),
		mode:  mode,
	}
}

func searchFields(e model.Entity) []string {
	return []string{e.DisplayNumber(), e.Name, e.AssignedName}
}

// setEntities replaces the backing list. A reload always clears the
// selection; active filters stay installed.
func (l *listView) setEntities(entities []model.Entity) {
	l.items.SetMaster(entities)
	l.sel.Reset()
	l.loaded = true
	l.types = distinctTypes(entities)
	if l.typeIndex() < 0 {
		l.typ = ""
	}
	l.applyType()
	l.clampCursor()
}

func distinctTypes(entities []model.Entity) []string {
	seen := map[string]struct{}{}
	for _, e := range entities {
		if e.AssignedType == "" {
			continue
		}
		seen[e.AssignedType] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (l *listView) setQuery(query string) {
	l.query = query
	l.applySearch()
}

func (l *listView) toggleMode() {
	if l.mode == searchFuzzy {
		l.mode = searchSubstring
	} else {
		l.mode = searchFuzzy
	}
	l.applySearch()
}

func (l *listView) applySearch() {
	if strings.TrimSpace(l.query) == "" {
		l.items.ClearPredicate(filterSearch)
	} else if l.mode == searchFuzzy {
		l.items.SetPredicate(filterSearch, collection.Fuzzy(l.query, searchFields))
	} else {
		l.items.SetPredicate(filterSearch, collection.Contains(l.query, searchFields))
	}
	l.clampCursor()
}

// cycleType steps through "all" and every assigned type in the list.
func (l *listView) cycleType() {
	next := l.typeIndex() + 1
	if next >= len(l.types) {
		l.typ = ""
	} else {
		l.typ = l.types[next]
	}
	l.applyType()
	l.clampCursor()
}

// typeIndex returns the position of the active type in types, or -1 for
// "all" and for a type no longer present.
func (l *listView) typeIndex() int {
	if l.typ == "" {
		return -1
	}
	return slices.Index(l.types, l.typ)
}

func (l *listView) typeLabel() string {
	if l.typ == "" {
		return "all"
	}
	return l.typ
}

func (l *listView) applyType() {
	if l.typ == "" {
		l.items.ClearPredicate(filterType)
		return
	}
	set := map[string]struct{}{l.typ: {}}
	l.items.SetPredicate(filterType, collection.MemberOf(set, func(e model.Entity) string { return e.AssignedType }))
}

func (l *listView) clampCursor() {
	n := l.items.Len()
	if l.cursor >= n {
		l.cursor = n - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
}

func (l *listView) move(delta int) {
	l.cursor += delta
	l.clampCursor()
}

func (l *listView) toggle() {
	e, ok := l.items.At(l.cursor)
	if !ok {
		return
	}
	l.sel.Toggle(e.ID, l.cursor)
}

// extend moves the cursor by delta and extends the range to it.
func (l *listView) extend(delta int) {
	l.move(delta)
	l.extendToCursor()
}

func (l *listView) extendToCursor() {
	e, ok := l.items.At(l.cursor)
	if !ok {
		return
	}
	l.sel.ExtendRange(e.ID, l.cursor, l.items.VisibleIDs())
}

func (l *listView) selectAll() {
	l.sel.SelectAllVisible(l.items.VisibleIDs())
}

func (l *listView) selectNone() {
	l.sel.SelectNoneVisible(l.items.VisibleIDs())
}

func (l *listView) selectedIDs() []int64 {
	return l.sel.IDs()
}

func (l *listView) summary() string {
	visible := l.items.VisibleIDs()
	scope := "none"
	if l.scope.ID != 0 {
		scope = l.scope.Name
	}
	search := l.query
	if search == "" {
		search = "-"
	}
	return fmt.Sprintf("%s: %s  showing %d/%d  selected %d (%d visible)  search[%s]=%s  type=%s",
		l.kind.ScopeName(), scope, len(visible), l.items.MasterLen(),
		l.sel.Len(), l.sel.CountVisible(visible), l.mode, search, l.typeLabel())
}

// render draws the visible rows that fit into height, scrolled so the cursor
// stays on screen.
func (l *listView) render(width, height int) string {
	if !l.loaded {
		return fmt.Sprintf("Choose a %s with s.", l.kind.ScopeName())
	}
	if l.items.MasterLen() == 0 {
		return "No entities found."
	}
	visible := l.items.Visible()
	if len(visible) == 0 {
		return "No entities match the current filters."
	}
	height = maxInt(1, height)
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+height {
		l.offset = l.cursor - height + 1
	}
	end := minInt(len(visible), l.offset+height)
	lines := make([]string, 0, end-l.offset)
	for i := l.offset; i < end; i++ {
		lines = append(lines, l.renderRow(i, visible[i], width))
	}
	return strings.Join(lines, "\n")
}

func (l *listView) renderRow(index int, e model.Entity, width int) string {
	mark := "[ ]"
	if l.sel.IsSelected(e.ID) {
		mark = "[x]"
	}
	assigned := "-"
	if e.AssignedID != nil {
		assigned = e.AssignedName
		if e.AssignedType != "" {
			assigned += " (" + e.AssignedType + ")"
		}
	}
	line := fmt.Sprintf("%s %-6s %-32s %s", mark, e.DisplayNumber(), stats.Truncate(e.Name, 32), assigned)
	if e.Verdict != nil && e.Verdict.Class != "" {
		line += "  " + stats.VerdictLabel(e.Verdict)
	}
	line = stats.Truncate(line, maxInt(1, width-2))
	switch {
	case index == l.cursor:
		return cursorStyle.Render("> " + line)
	case l.sel.IsSelected(e.ID):
		return selectedStyle.Render("  " + line)
	case e.AssignedID == nil:
		return mutedStyle.Render("  " + line)
	default:
		return "  " + line
	}
}
