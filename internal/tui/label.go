package tui

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Item is one identity waiting for a name.
type Item struct {
	Key        string
	Name       string // current display name, empty if unnamed
	CropPath   string // representative face crop
	Embeddings int
}

// Renamer applies a display name to an identity.
type Renamer interface {
	Rename(ctx context.Context, key, name string) (int, error)
}

// Previewer returns a command that shows the crop at path, or nil when no
// preview is configured.
type Previewer func(path string) tea.Cmd

// renamedMsg reports a finished rename.
type renamedMsg struct {
	key     string
	name    string
	records int
	err     error
}

// previewDoneMsg reports that the external preview command exited.
type previewDoneMsg struct {
	err error
}

// Summary is what the user did in a labelling session.
type Summary struct {
	Renamed int
	Skipped int
	Records int // index records updated
	Quit    bool
}

// LabelModel walks the user through identities one at a time.
type LabelModel struct {
	ctx     context.Context
	items   []Item
	current int
	input   textinput.Model
	renamer Renamer
	preview Previewer
	styles  *Styles
	status  string
	busy    bool
	summary Summary
	done    bool
}

// NewLabelModel creates the labelling model. preview may be nil.
func NewLabelModel(ctx context.Context, items []Item, renamer Renamer, preview Previewer, s *Styles) *LabelModel {
	if s == nil {
		s = DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Name this face (enter to skip)"
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 40

	return &LabelModel{
		ctx:     ctx,
		items:   items,
		input:   ti,
		renamer: renamer,
		preview: preview,
		styles:  s,
		done:    len(items) == 0,
	}
}

// Init starts the cursor blinking and shows the first crop.
func (m *LabelModel) Init() tea.Cmd {
	if m.done {
		return tea.Quit
	}
	return tea.Batch(textinput.Blink, m.previewCurrent())
}

// Update handles key presses and rename results.
func (m *LabelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.summary.Quit = true
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlP:
			return m, m.previewCurrent()
		case tea.KeyEnter:
			if m.busy || m.done {
				return m, nil
			}
			return m, m.submit()
		}
	case renamedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = m.styles.Error.Render(fmt.Sprintf("Could not rename %s: %v", msg.key, msg.err))
			return m, nil
		}
		m.summary.Renamed++
		m.summary.Records += msg.records
		m.status = m.styles.Success.Render(fmt.Sprintf("%s is now %s (%d records)", msg.key, msg.name, msg.records))
		return m, m.advance()
	case previewDoneMsg:
		if msg.err != nil {
			m.status = m.styles.Error.Render(fmt.Sprintf("Preview failed: %v", msg.err))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *LabelModel) submit() tea.Cmd {
	name := strings.TrimSpace(m.input.Value())
	if name == "" {
		m.summary.Skipped++
		m.status = m.styles.Muted.Render("Skipped " + m.items[m.current].Key)
		return m.advance()
	}

	m.busy = true
	key := m.items[m.current].Key
	ctx, renamer := m.ctx, m.renamer
	return func() tea.Msg {
		n, err := renamer.Rename(ctx, key, name)
		return renamedMsg{key: key, name: name, records: n, err: err}
	}
}

func (m *LabelModel) advance() tea.Cmd {
	m.input.Reset()
	m.current++
	if m.current >= len(m.items) {
		m.done = true
		return tea.Quit
	}
	return m.previewCurrent()
}

func (m *LabelModel) previewCurrent() tea.Cmd {
	if m.preview == nil || m.done || m.items[m.current].CropPath == "" {
		return nil
	}
	return m.preview(m.items[m.current].CropPath)
}

// View renders the current identity and the name prompt.
func (m *LabelModel) View() string {
	if m.done {
		return ""
	}

	item := m.items[m.current]
	var b strings.Builder
	b.WriteString(m.styles.Title.Render(fmt.Sprintf("Face %d of %d", m.current+1, len(m.items))))
	b.WriteString("\n\n")
	b.WriteString("Identity: " + m.styles.Key.Render(item.Key))
	if item.Name != "" {
		b.WriteString(m.styles.Muted.Render(" (currently " + item.Name + ")"))
	}
	fmt.Fprintf(&b, "\nFaces:    %d\n", item.Embeddings)
	if item.CropPath != "" {
		b.WriteString("Crop:     " + m.styles.Muted.Render(item.CropPath) + "\n")
	}
	if m.current == 0 && m.summary.Renamed == 0 {
		b.WriteString("\n" + m.styles.Warning.Render("TIP: If you get the same face twice, name them the same. It will help when searching."))
		b.WriteString("\n")
	}
	b.WriteString("\n" + m.input.View() + "\n")
	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}
	b.WriteString("\n" + m.styles.Help.Render("enter: save • ctrl+p: show face • esc: quit"))
	return b.String()
}

// Summary returns what happened so far.
func (m *LabelModel) Summary() Summary {
	return m.summary
}

// Done reports whether the session has ended.
func (m *LabelModel) Done() bool {
	return m.done
}

// Current returns the identity being labelled, or nil when done.
func (m *LabelModel) Current() *Item {
	if m.done {
		return nil
	}
	return &m.items[m.current]
}

// CommandPreviewer runs cmdline with the crop path appended, handing the
// terminal over while it runs. An empty cmdline disables previews.
func CommandPreviewer(cmdline string) Previewer {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return nil
	}
	return func(path string) tea.Cmd {
		args := append(append([]string(nil), fields[1:]...), path)
		c := exec.Command(fields[0], args...)
		return tea.ExecProcess(c, func(err error) tea.Msg {
			return previewDoneMsg{err: err}
		})
	}
}

// Run starts the labelling program on the terminal and returns the summary.
func Run(m *LabelModel, opts ...tea.ProgramOption) (Summary, error) {
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return Summary{}, fmt.Errorf("failed to run labelling UI: %w", err)
	}
	if lm, ok := final.(*LabelModel); ok {
		return lm.Summary(), nil
	}
	return m.Summary(), nil
}
