package register

import "errors"

// Register errors.
var (
	// ErrInvalidRegister indicates the register name is not recognised.
	ErrInvalidRegister = errors.New("register: invalid register name")

	// ErrReadOnlyRegister indicates a write to a register only the editor may set.
	ErrReadOnlyRegister = errors.New("register: register is read-only")
)

// Well-known register names.
const (
	Unnamed   = '"'
	LastYank  = '0'
	BlackHole = '_'
	Command   = ':'
	Search    = '/'
)

// Type categorizes registers by their behavior.
type Type uint8

const (
	// TypeNamed is a named register (a-z, A-Z appends).
	TypeNamed Type = iota

	// TypeNumbered is a numbered delete register (1-9).
	TypeNumbered

	// TypeUnnamed is the default register (").
	TypeUnnamed

	// TypeLastYank is the yank register (0).
	TypeLastYank

	// TypeBlackHole is the black hole register (_).
	TypeBlackHole

	// TypeCommand is the last command-line register (:).
	TypeCommand

	// TypeSearch is the last search pattern register (/).
	TypeSearch
)

// Register is a snapshot of one storage slot.
type Register struct {
	// Name is the register character.
	Name rune

	// Type categorizes the register.
	Type Type

	// Content holds the register's text.
	Content string

	// Linewise indicates the content is a list of whole lines.
	Linewise bool

	// ReadOnly indicates only the editor itself may overwrite the register.
	ReadOnly bool

	// Keys holds a replayable keystroke list for registers set from a
	// RecordedState; nil otherwise.
	Keys []string
}

// TypeOf returns the type of register for a given name and whether the name
// is valid.
func TypeOf(name rune) (Type, bool) {
	switch {
	case name == Unnamed:
		return TypeUnnamed, true
	case name >= 'a' && name <= 'z', name >= 'A' && name <= 'Z':
		return TypeNamed, true
	case name == LastYank:
		return TypeLastYank, true
	case name >= '1' && name <= '9':
		return TypeNumbered, true
	case name == BlackHole:
		return TypeBlackHole, true
	case name == Command:
		return TypeCommand, true
	case name == Search:
		return TypeSearch, true
	default:
		return 0, false
	}
}

// IsValid returns true if the register name is valid.
func IsValid(name rune) bool {
	_, ok := TypeOf(name)
	return ok
}
