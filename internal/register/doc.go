// Package register implements Vim-style registers.
//
// A Store holds the unnamed register ("), the yank register (0), the rotating
// delete registers (1-9), the named registers (a-z; A-Z appends), the black
// hole (_) and the read-only registers that only the editor writes, most
// importantly ':' which mirrors the last command line.
//
// Read-only registers are written through SetReadonly with a RecordedState,
// a keystroke list that can be replayed later (for example by @:).
//
//	store := register.NewStore()
//	_ = store.SetReadonly(':', register.NewRecordedState(':', "10,20d"))
//	rec, _ := store.Recorded(':')
//	fmt.Println(rec.CommandList) // [1 0 , 2 0 d]
package register
