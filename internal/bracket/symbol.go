package bracket

import "fmt"

// Group identifies a bracket family. The numeric values are significant: they
// are what the validator keeps on its stack.
type Group int

const (
	Round  Group = 1
	Square Group = 2
	Curly  Group = 3
	// Other is any rune that is not one of the six bracket characters.
	Other Group = 4
)

func (g Group) String() string {
	switch g {
	case Round:
		return "round"
	case Square:
		return "square"
	case Curly:
		return "curly"
	case Other:
		return "other"
	default:
		return fmt.Sprintf("group(%d)", int(g))
	}
}

// Role tells whether a bracket opens or closes its group.
type Role int

const (
	None Role = iota
	Open
	Close
)

func (r Role) String() string {
	switch r {
	case Open:
		return "open"
	case Close:
		return "close"
	default:
		return "none"
	}
}

// Symbol is the classification of a single rune.
type Symbol struct {
	Group Group
	Role  Role
}

// Classify maps a rune to its group and role. Roles are decided by the
// literal character, never by the group.
func Classify(r rune) Symbol {
	switch r {
	case '(':
		return Symbol{Group: Round, Role: Open}
	case ')':
		return Symbol{Group: Round, Role: Close}
	case '[':
		return Symbol{Group: Square, Role: Open}
	case ']':
		return Symbol{Group: Square, Role: Close}
	case '{':
		return Symbol{Group: Curly, Role: Open}
	case '}':
		return Symbol{Group: Curly, Role: Close}
	}
	return Symbol{Group: Other, Role: None}
}

// nesting lists the (pending, opened) pairs that are accepted.
var nesting = map[[2]Group]struct{}{
	{Round, Curly}:   {},
	{Square, Round}:  {},
	{Square, Square}: {},
	{Square, Curly}:  {},
	{Curly, Square}:  {},
}

// CanOpen reports whether group g may be opened while top is pending.
func CanOpen(top, g Group) bool {
	_, ok := nesting[[2]Group{top, g}]
	return ok
}
