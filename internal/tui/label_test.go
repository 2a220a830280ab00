package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenamer struct {
	calls map[string]string
	err   error
}

func (f *fakeRenamer) Rename(ctx context.Context, key, name string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.calls == nil {
		f.calls = make(map[string]string)
	}
	f.calls[key] = name
	return 2, nil
}

func testItems() []Item {
	return []Item{
		{Key: "k1", CropPath: "/store/k1/a.png", Embeddings: 3},
		{Key: "k2", Name: "Bob", CropPath: "/store/k2/b.png", Embeddings: 1},
	}
}

func typeText(m *LabelModel, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// press sends a key and runs the returned command once, feeding its message back
func press(t *testing.T, m *LabelModel, key tea.KeyType) tea.Cmd {
	t.Helper()
	_, cmd := m.Update(tea.KeyMsg{Type: key})
	if cmd == nil {
		return nil
	}
	if msg, ok := cmd().(renamedMsg); ok {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func TestNewLabelModel(t *testing.T) {
	m := NewLabelModel(context.Background(), testItems(), &fakeRenamer{}, nil, nil)

	require.NotNil(t, m)
	assert.False(t, m.Done())
	assert.Equal(t, "k1", m.Current().Key)
	assert.True(t, m.input.Focused())
	assert.NotNil(t, m.styles)
}

func TestNewLabelModel_NoItems(t *testing.T) {
	m := NewLabelModel(context.Background(), nil, &fakeRenamer{}, nil, nil)

	assert.True(t, m.Done())
	assert.Nil(t, m.Current())
	assert.NotNil(t, m.Init())
	assert.Empty(t, m.View())
}

func TestLabelModel_RenameAndAdvance(t *testing.T) {
	renamer := &fakeRenamer{}
	m := NewLabelModel(context.Background(), testItems(), renamer, nil, nil)

	typeText(m, "Alice")
	assert.Equal(t, "Alice", m.input.Value())

	press(t, m, tea.KeyEnter)

	assert.Equal(t, "Alice", renamer.calls["k1"])
	assert.Equal(t, "k2", m.Current().Key)
	assert.Empty(t, m.input.Value())
	assert.Equal(t, 1, m.Summary().Renamed)
	assert.Equal(t, 2, m.Summary().Records)
}

func TestLabelModel_EmptyInputSkips(t *testing.T) {
	renamer := &fakeRenamer{}
	m := NewLabelModel(context.Background(), testItems(), renamer, nil, nil)

	press(t, m, tea.KeyEnter)
	typeText(m, "   ")
	press(t, m, tea.KeyEnter)

	assert.Empty(t, renamer.calls)
	assert.True(t, m.Done())
	assert.Equal(t, 2, m.Summary().Skipped)
	assert.False(t, m.Summary().Quit)
}

func TestLabelModel_RenameError(t *testing.T) {
	renamer := &fakeRenamer{err: errors.New("index locked")}
	m := NewLabelModel(context.Background(), testItems(), renamer, nil, nil)

	typeText(m, "Alice")
	press(t, m, tea.KeyEnter)

	assert.Equal(t, "k1", m.Current().Key, "stays on the same face after an error")
	assert.Contains(t, m.status, "index locked")
	assert.Equal(t, 0, m.Summary().Renamed)
}

func TestLabelModel_Quit(t *testing.T) {
	for _, key := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		m := NewLabelModel(context.Background(), testItems(), &fakeRenamer{}, nil, nil)

		_, cmd := m.Update(tea.KeyMsg{Type: key})

		require.NotNil(t, cmd)
		assert.True(t, m.Done())
		assert.True(t, m.Summary().Quit)
	}
}

func TestLabelModel_Preview(t *testing.T) {
	var shown []string
	preview := func(path string) tea.Cmd {
		shown = append(shown, path)
		return func() tea.Msg { return previewDoneMsg{} }
	}
	m := NewLabelModel(context.Background(), testItems(), &fakeRenamer{}, preview, nil)

	require.NotNil(t, m.Init())
	assert.Equal(t, []string{"/store/k1/a.png"}, shown)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	require.NotNil(t, cmd)
	assert.Len(t, shown, 2)

	press(t, m, tea.KeyEnter) // skip to k2, which previews it
	assert.Equal(t, "/store/k2/b.png", shown[len(shown)-1])
}

func TestLabelModel_PreviewError(t *testing.T) {
	m := NewLabelModel(context.Background(), testItems(), &fakeRenamer{}, nil, nil)

	m.Update(previewDoneMsg{err: errors.New("kitty not found")})

	assert.Contains(t, m.status, "kitty not found")
}

func TestLabelModel_View(t *testing.T) {
	m := NewLabelModel(context.Background(), testItems(), &fakeRenamer{}, nil, nil)

	view := m.View()
	assert.Contains(t, view, "Face 1 of 2")
	assert.Contains(t, view, "k1")
	assert.Contains(t, view, "TIP")

	press(t, m, tea.KeyEnter)
	view = m.View()
	assert.Contains(t, view, "Face 2 of 2")
	assert.Contains(t, view, "currently Bob")
}

func TestCommandPreviewer(t *testing.T) {
	assert.Nil(t, CommandPreviewer(""))
	assert.Nil(t, CommandPreviewer("   "))

	p := CommandPreviewer("kitty icat")
	require.NotNil(t, p)
	assert.NotNil(t, p("/tmp/face.png"))
}
