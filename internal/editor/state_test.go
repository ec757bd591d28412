package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/exline/internal/buffer"
)

type fakeHistory []string

func (f fakeHistory) Entries() []string { return f }

func TestNewState_Defaults(t *testing.T) {
	st := NewState(nil, nil)
	assert.NotNil(t, st.Buffer)
	assert.NotNil(t, st.Registers)
	assert.Equal(t, 1, st.Cursor())
	assert.Equal(t, ModeNormal, st.Mode())
	assert.Nil(t, st.HistoryEntries())
}

func TestState_SetCursorClamps(t *testing.T) {
	st := NewState(buffer.NewFromString("a\nb\nc"), nil)

	st.SetCursor(2)
	assert.Equal(t, 2, st.Cursor())
	st.SetCursor(10)
	assert.Equal(t, 3, st.Cursor())
	st.SetCursor(-4)
	assert.Equal(t, 1, st.Cursor())
}

func TestState_MarksStatusQuit(t *testing.T) {
	st := NewState(nil, nil)

	_, ok := st.Mark('a')
	assert.False(t, ok)
	st.SetMark('a', 4)
	line, ok := st.Mark('a')
	assert.True(t, ok)
	assert.Equal(t, 4, line)

	st.SetStatus("E492: Not an editor command: foo", true)
	text, isErr := st.Status()
	assert.Equal(t, "E492: Not an editor command: foo", text)
	assert.True(t, isErr)

	assert.False(t, st.QuitRequested())
	st.RequestQuit()
	assert.True(t, st.QuitRequested())

	st.History = fakeHistory{"w"}
	assert.Equal(t, []string{"w"}, st.HistoryEntries())
}
