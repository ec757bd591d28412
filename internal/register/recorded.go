package register

import (
	"strings"

	"github.com/rivo/uniseg"
)

// RecordedState is a replayable keystroke record tagged with the register it
// was recorded for.
type RecordedState struct {
	// RegisterName is the originating register.
	RegisterName rune

	// CommandList holds one entry per user-perceived character.
	CommandList []string
}

// NewRecordedState splits text into grapheme clusters so that replaying
// CommandList types exactly what the user typed, including combining marks
// and multi-rune emoji.
func NewRecordedState(name rune, text string) RecordedState {
	keys := make([]string, 0, len(text))
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		keys = append(keys, g.Str())
	}
	return RecordedState{RegisterName: name, CommandList: keys}
}

// Text rejoins the keystrokes.
func (r RecordedState) Text() string {
	return strings.Join(r.CommandList, "")
}
