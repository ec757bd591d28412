package excmd

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dshills/exline/internal/editor"
)

// AddressKind identifies the base of a line address.
type AddressKind uint8

const (
	// AddrCurrent is "." (also implied by a bare offset such as "+2").
	AddrCurrent AddressKind = iota
	// AddrLast is "$".
	AddrLast
	// AddrNumber is an absolute line number.
	AddrNumber
	// AddrMark is "'x".
	AddrMark
)

// Address is a single line specifier with an optional offset.
type Address struct {
	Kind   AddressKind
	Number int
	Mark   rune
	Offset int
}

// String renders the address in Ex syntax.
func (a Address) String() string {
	var sb strings.Builder
	switch a.Kind {
	case AddrCurrent:
		sb.WriteByte('.')
	case AddrLast:
		sb.WriteByte('$')
	case AddrNumber:
		sb.WriteString(strconv.Itoa(a.Number))
	case AddrMark:
		sb.WriteByte('\'')
		sb.WriteRune(a.Mark)
	}
	switch {
	case a.Offset > 0:
		sb.WriteString("+" + strconv.Itoa(a.Offset))
	case a.Offset < 0:
		sb.WriteString(strconv.Itoa(a.Offset))
	}
	return sb.String()
}

// Resolve returns the 1-based line the address refers to. Line 0 is valid
// (it means "before the first line" for commands such as :put).
func (a Address) Resolve(st *editor.State) (int, error) {
	var line int
	switch a.Kind {
	case AddrCurrent:
		line = st.Cursor()
	case AddrLast:
		line = st.Buffer.LineCount()
	case AddrNumber:
		line = a.Number
	case AddrMark:
		l, ok := st.Mark(a.Mark)
		if !ok {
			return 0, NewError(MarkNotSet, "")
		}
		line = l
	}
	line += a.Offset
	if line < 0 || line > st.Buffer.LineCount() {
		return 0, NewError(InvalidRange, "")
	}
	return line, nil
}

// LineRange is the optional address prefix of a command.
type LineRange struct {
	Start  Address
	End    Address
	HasEnd bool
}

// CurrentLine is the range "." used when a command runs without one.
func CurrentLine() LineRange {
	return LineRange{Start: Address{Kind: AddrCurrent}}
}

// WholeFile is the range "%".
func WholeFile() LineRange {
	return LineRange{
		Start:  Address{Kind: AddrNumber, Number: 1},
		End:    Address{Kind: AddrLast},
		HasEnd: true,
	}
}

// String renders the range in Ex syntax.
func (r LineRange) String() string {
	if !r.HasEnd {
		return r.Start.String()
	}
	return r.Start.String() + "," + r.End.String()
}

// Resolve returns the inclusive 1-based bounds of the range.
func (r LineRange) Resolve(st *editor.State) (start, end int, err error) {
	start, err = r.Start.Resolve(st)
	if err != nil {
		return 0, 0, err
	}
	end = start
	if r.HasEnd {
		end, err = r.End.Resolve(st)
		if err != nil {
			return 0, 0, err
		}
	}
	if start > end {
		return 0, 0, NewError(BackwardsRange, "")
	}
	return start, end, nil
}

// resolveLines resolves r for commands that operate on existing lines, where
// line 0 means line 1.
func resolveLines(st *editor.State, r LineRange) (start, end int, err error) {
	start, end, err = r.Resolve(st)
	if err != nil {
		return 0, 0, err
	}
	if start == 0 {
		start = 1
	}
	if end == 0 {
		end = 1
	}
	return start, end, nil
}

// ParseRange consumes a range prefix from s and returns it with the rest of
// s. The range is nil when s does not start with an address.
func ParseRange(s string) (*LineRange, string, error) {
	if strings.HasPrefix(s, "%") {
		r := WholeFile()
		return &r, s[1:], nil
	}

	start, rest, ok, err := parseAddress(s)
	if err != nil {
		return nil, s, err
	}
	if len(rest) == 0 || (rest[0] != ',' && rest[0] != ';') {
		if !ok {
			return nil, s, nil
		}
		return &LineRange{Start: start}, rest, nil
	}

	// "a," and ",b" default the missing side to the current line.
	if !ok {
		start = Address{Kind: AddrCurrent}
	}
	end, rest, ok, err := parseAddress(rest[1:])
	if err != nil {
		return nil, s, err
	}
	if !ok {
		end = Address{Kind: AddrCurrent}
	}
	return &LineRange{Start: start, End: end, HasEnd: true}, rest, nil
}

// parseAddress consumes one address. ok is false when s has no address.
func parseAddress(s string) (Address, string, bool, error) {
	var addr Address
	found := false

	switch {
	case s == "":
		return addr, s, false, nil
	case s[0] == '.':
		addr.Kind = AddrCurrent
		s = s[1:]
		found = true
	case s[0] == '$':
		addr.Kind = AddrLast
		s = s[1:]
		found = true
	case s[0] == '\'':
		if len(s) < 2 {
			return addr, s, false, NewError(InvalidRange, "")
		}
		r, size := utf8.DecodeRuneInString(s[1:])
		if r == utf8.RuneError && size <= 1 {
			return addr, s, false, NewError(InvalidRange, "")
		}
		addr.Kind = AddrMark
		addr.Mark = r
		s = s[1+size:]
		found = true
	case isDigit(s[0]):
		n, rest := leadingNumber(s)
		addr.Kind = AddrNumber
		addr.Number = n
		s = rest
		found = true
	}

	for len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		sign := 1
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
		n := 1
		if len(s) > 0 && isDigit(s[0]) {
			n, s = leadingNumber(s)
		}
		if !found {
			addr.Kind = AddrCurrent
			found = true
		}
		addr.Offset += sign * n
	}

	return addr, s, found, nil
}

func leadingNumber(s string) (int, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		// Only overflow can fail here; such a line never exists.
		n = int(^uint(0) >> 1)
	}
	return n, s[i:]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
