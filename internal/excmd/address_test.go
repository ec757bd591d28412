package excmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/exline/internal/buffer"
	"github.com/dshills/exline/internal/editor"
)

func newTestState(text string) *editor.State {
	return editor.NewState(buffer.NewFromString(text), nil)
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		rest   string
		noneOK bool
	}{
		{name: "number", input: "12d", want: "12", rest: "d"},
		{name: "current", input: ".y", want: ".", rest: "y"},
		{name: "last", input: "$", want: "$", rest: ""},
		{name: "percent", input: "%s/a/b/", want: "1,$", rest: "s/a/b/"},
		{name: "pair", input: "3,7d", want: "3,7", rest: "d"},
		{name: "semicolon", input: "3;+2d", want: "3,.+2", rest: "d"},
		{name: "offset only", input: "+3", want: ".+3", rest: ""},
		{name: "bare minus", input: "-", want: ".-1", rest: ""},
		{name: "mark", input: "'a,'bd", want: "'a,'b", rest: "d"},
		{name: "missing end", input: "5,d", want: "5,.", rest: "d"},
		{name: "missing start", input: ",5d", want: ".,5", rest: "d"},
		{name: "stacked offsets", input: "$-2+1", want: "$-1", rest: ""},
		{name: "none", input: "write", rest: "write", noneOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, rest, err := ParseRange(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.rest, rest)
			if tt.noneOK {
				assert.Nil(t, r)
				return
			}
			require.NotNil(t, r)
			assert.Equal(t, tt.want, r.String())
		})
	}
}

func TestParseRange_BadMark(t *testing.T) {
	for _, input := range []string{"'", "'\xffd", "'\xff"} {
		var err error
		assert.NotPanics(t, func() { _, _, err = ParseRange(input) }, "%q", input)
		code, ok := CodeOf(err)
		require.True(t, ok, "%q", input)
		assert.Equal(t, InvalidRange, code)
	}

	r, rest, err := ParseRange("'éd")
	require.NoError(t, err)
	assert.Equal(t, 'é', r.Start.Mark)
	assert.Equal(t, "d", rest)
}

func TestLineRange_Resolve(t *testing.T) {
	st := newTestState("1\n2\n3\n4\n5")
	st.SetCursor(3)
	st.SetMark('m', 2)

	tests := []struct {
		input      string
		start, end int
		code       ErrorCode
	}{
		{input: ".", start: 3, end: 3},
		{input: "%", start: 1, end: 5},
		{input: ".,$", start: 3, end: 5},
		{input: "'m,.+1", start: 2, end: 4},
		{input: "0", start: 0, end: 0},
		{input: "6", code: InvalidRange},
		{input: ".-4", code: InvalidRange},
		{input: "4,2", code: BackwardsRange},
		{input: "'z", code: MarkNotSet},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r, _, err := ParseRange(tt.input)
			require.NoError(t, err)
			require.NotNil(t, r)

			start, end, err := r.Resolve(st)
			if tt.code != 0 {
				code, ok := CodeOf(err)
				require.True(t, ok, "expected Ex error, got %v", err)
				assert.Equal(t, tt.code, code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "E492: Not an editor command: foo", NewError(NotAnEditorCommand, "foo").Error())
	assert.Equal(t, "E16: Invalid range", NewError(InvalidRange, "").Error())
	assert.ErrorIs(t, NewError(NotAnEditorCommand, "x"), &Error{Code: NotAnEditorCommand})
	assert.NotErrorIs(t, NewError(InvalidRange, ""), &Error{Code: NotAnEditorCommand})

	_, ok := CodeOf(assert.AnError)
	assert.False(t, ok)
}
