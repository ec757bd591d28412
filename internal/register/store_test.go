package register

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== RecordedState Tests ====================

func TestNewRecordedState(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"ascii", "10,20d", []string{"1", "0", ",", "2", "0", "d"}},
		{"empty", "", []string{}},
		{"combining mark", "s/é/e/", []string{"s", "/", "é", "/", "e", "/"}},
		{"emoji", "echo 👍🏽", []string{"e", "c", "h", "o", " ", "👍🏽"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewRecordedState(':', tt.text)
			assert.Equal(t, ':', rec.RegisterName)
			assert.Equal(t, tt.want, rec.CommandList)
			assert.Equal(t, tt.text, rec.Text())
		})
	}
}

// ==================== Store Tests ====================

func TestStore_SetReadonlyOverwrites(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.SetReadonly(Command, NewRecordedState(Command, "write")))
	require.NoError(t, s.SetReadonly(Command, NewRecordedState(Command, "q")))

	rec, ok := s.Recorded(Command)
	require.True(t, ok)
	assert.Equal(t, []string{"q"}, rec.CommandList)

	reg, ok := s.Get(Command)
	require.True(t, ok)
	assert.Equal(t, "q", reg.Content)
	assert.True(t, reg.ReadOnly)
}

func TestStore_ReadonlyRejectsUserWrites(t *testing.T) {
	s := NewStore()
	assert.ErrorIs(t, s.Set(Command, "x", false), ErrReadOnlyRegister)
	assert.ErrorIs(t, s.Set('!', "x", false), ErrInvalidRegister)
	assert.ErrorIs(t, s.SetReadonly('!', RecordedState{}), ErrInvalidRegister)
}

func TestStore_RecordedCopiesKeys(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetReadonly(Command, NewRecordedState(Command, "ab")))

	rec, _ := s.Recorded(Command)
	rec.CommandList[0] = "z"

	again, _ := s.Recorded(Command)
	assert.Equal(t, []string{"a", "b"}, again.CommandList)
}

func TestStore_NamedAppend(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Set('a', "one", true))
	require.NoError(t, s.Set('A', "two", true))

	reg, _ := s.Get('a')
	assert.Equal(t, "one\ntwo", reg.Content)
	assert.True(t, reg.Linewise)

	upper, _ := s.Get('A')
	assert.Equal(t, reg, upper)
}

func TestStore_SetDeleteRotates(t *testing.T) {
	s := NewStore()
	for _, text := range []string{"first", "second", "third"} {
		require.NoError(t, s.SetDelete(0, text, true))
	}

	one, _ := s.Get('1')
	two, _ := s.Get('2')
	three, _ := s.Get('3')
	unnamed, _ := s.Get(Unnamed)
	assert.Equal(t, "third", one.Content)
	assert.Equal(t, "second", two.Content)
	assert.Equal(t, "first", three.Content)
	assert.Equal(t, "third", unnamed.Content)
}

func TestStore_SetYank(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetYank(0, "yanked", true))

	zero, _ := s.Get(LastYank)
	assert.Equal(t, "yanked", zero.Content)

	require.NoError(t, s.SetYank('b', "named", false))
	b, _ := s.Get('b')
	unnamed, _ := s.Get(Unnamed)
	zero, _ = s.Get(LastYank)
	assert.Equal(t, "named", b.Content)
	assert.Equal(t, "named", unnamed.Content)
	assert.Equal(t, "yanked", zero.Content, "named yank leaves register 0 alone")
}

func TestStore_BlackHole(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetDelete(BlackHole, "gone", true))
	assert.Empty(t, s.List())
}

func TestStore_ListOrder(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Set('c', "c", false))
	require.NoError(t, s.SetDelete(0, "del", true))
	require.NoError(t, s.SetReadonly(Command, NewRecordedState(Command, "reg")))

	var names []rune
	for _, reg := range s.List() {
		names = append(names, reg.Name)
	}
	assert.Equal(t, []rune{'"', '1', 'c', ':'}, names)
}
