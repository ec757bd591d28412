package register

import (
	"sort"
	"sync"
	"unicode"
)

// Store manages all registers.
type Store struct {
	mu        sync.RWMutex
	registers map[rune]*Register
}

// NewStore creates a register store with the default slots.
func NewStore() *Store {
	s := &Store{registers: make(map[rune]*Register)}
	s.registers[Unnamed] = &Register{Name: Unnamed, Type: TypeUnnamed}
	s.registers[LastYank] = &Register{Name: LastYank, Type: TypeLastYank}
	for r := '1'; r <= '9'; r++ {
		s.registers[r] = &Register{Name: r, Type: TypeNumbered}
	}
	for r := 'a'; r <= 'z'; r++ {
		s.registers[r] = &Register{Name: r, Type: TypeNamed}
	}
	s.registers[Command] = &Register{Name: Command, Type: TypeCommand, ReadOnly: true}
	s.registers[Search] = &Register{Name: Search, Type: TypeSearch, ReadOnly: true}
	return s
}

// Get returns a copy of a register. Uppercase names read their lowercase
// register.
func (s *Store) Get(name rune) (Register, bool) {
	if unicode.IsUpper(name) {
		name = unicode.ToLower(name)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, ok := s.registers[name]
	if !ok {
		return Register{}, false
	}
	return copyRegister(reg), true
}

// Set stores user content in a register. Uppercase named registers append.
// The black hole register discards everything.
func (s *Store) Set(name rune, content string, linewise bool) error {
	if !IsValid(name) {
		return ErrInvalidRegister
	}
	if name == BlackHole {
		return nil
	}

	appendMode := unicode.IsUpper(name)
	if appendMode {
		name = unicode.ToLower(name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reg := s.registers[name]
	if reg.ReadOnly {
		return ErrReadOnlyRegister
	}

	if appendMode && reg.Content != "" {
		if reg.Linewise || linewise {
			reg.Content += "\n" + content
			reg.Linewise = true
		} else {
			reg.Content += content
		}
	} else {
		reg.Content = content
		reg.Linewise = linewise
	}
	reg.Keys = nil
	return nil
}

// SetYank stores yanked text. An explicit named register receives the text
// alongside the unnamed register; otherwise register 0 does.
func (s *Store) SetYank(name rune, content string, linewise bool) error {
	if name == BlackHole {
		return nil
	}
	if name != 0 && name != Unnamed {
		if err := s.Set(name, content, linewise); err != nil {
			return err
		}
		return s.setUnnamedFrom(name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.assign(LastYank, content, linewise)
	s.assign(Unnamed, content, linewise)
	return nil
}

// SetDelete stores deleted text, rotating the numbered registers (9 <- 8 <-
// ... <- 1) when no register was named.
func (s *Store) SetDelete(name rune, content string, linewise bool) error {
	if name == BlackHole {
		return nil
	}
	if name != 0 && name != Unnamed {
		if err := s.Set(name, content, linewise); err != nil {
			return err
		}
		return s.setUnnamedFrom(name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for r := '9'; r > '1'; r-- {
		prev := s.registers[r-1]
		s.assign(r, prev.Content, prev.Linewise)
	}
	s.assign('1', content, linewise)
	s.assign(Unnamed, content, linewise)
	return nil
}

// SetReadonly overwrites the register with a recorded keystroke sequence and
// marks it read-only. Any previous content is discarded.
func (s *Store) SetReadonly(name rune, rec RecordedState) error {
	if !IsValid(name) {
		return ErrInvalidRegister
	}

	keys := make([]string, len(rec.CommandList))
	copy(keys, rec.CommandList)

	s.mu.Lock()
	defer s.mu.Unlock()

	typ, _ := TypeOf(name)
	s.registers[name] = &Register{
		Name:     name,
		Type:     typ,
		Content:  rec.Text(),
		ReadOnly: true,
		Keys:     keys,
	}
	return nil
}

// Recorded returns the keystroke record held in a register, if any.
func (s *Store) Recorded(name rune) (RecordedState, bool) {
	reg, ok := s.Get(name)
	if !ok || reg.Keys == nil {
		return RecordedState{}, false
	}
	return RecordedState{RegisterName: name, CommandList: reg.Keys}, true
}

// List returns all non-empty registers in display order: unnamed, numbered,
// named, then the special registers.
func (s *Store) List() []Register {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Register, 0, len(s.registers))
	for _, reg := range s.registers {
		if reg.Content != "" {
			result = append(result, copyRegister(reg))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		ri, rj := displayRank(result[i]), displayRank(result[j])
		if ri != rj {
			return ri < rj
		}
		return result[i].Name < result[j].Name
	})
	return result
}

func displayRank(r Register) int {
	switch r.Type {
	case TypeUnnamed:
		return 0
	case TypeLastYank, TypeNumbered:
		return 1
	case TypeNamed:
		return 2
	default:
		return 3
	}
}

// assign must be called with the lock held.
func (s *Store) assign(name rune, content string, linewise bool) {
	reg := s.registers[name]
	reg.Content = content
	reg.Linewise = linewise
	reg.Keys = nil
}

func (s *Store) setUnnamedFrom(name rune) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.registers[unicode.ToLower(name)]
	s.assign(Unnamed, src.Content, src.Linewise)
	return nil
}

func copyRegister(reg *Register) Register {
	out := *reg
	if reg.Keys != nil {
		out.Keys = make([]string, len(reg.Keys))
		copy(out.Keys, reg.Keys)
	}
	return out
}
