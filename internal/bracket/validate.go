package bracket

import "fmt"

// Reason explains why a position made a sequence ill-formed.
type Reason int

const (
	// ReasonOther marks a rune outside the bracket alphabet.
	ReasonOther Reason = iota + 1
	// ReasonFirstOpener marks a non-round opener on an empty stack.
	ReasonFirstOpener
	// ReasonAdjacency marks an opener not allowed under the pending group.
	ReasonAdjacency
	// ReasonUnderflow marks a closer with nothing open.
	ReasonUnderflow
	// ReasonMismatch marks a closer whose group differs from the pending one.
	ReasonMismatch
	// ReasonUnclosed marks groups still open at the end of the input.
	ReasonUnclosed
)

func (r Reason) String() string {
	switch r {
	case ReasonOther:
		return "unrecognized character"
	case ReasonFirstOpener:
		return "first opener must be round"
	case ReasonAdjacency:
		return "group not allowed inside pending group"
	case ReasonUnderflow:
		return "nothing to close"
	case ReasonMismatch:
		return "closer does not match pending group"
	case ReasonUnclosed:
		return "unclosed groups at end of input"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Violation is one rule break found while scanning. Pos is the rune offset;
// for ReasonUnclosed it equals the rune count and Rune is zero.
type Violation struct {
	Pos    int
	Rune   rune
	Reason Reason
}

func (v Violation) String() string {
	if v.Reason == ReasonUnclosed {
		return fmt.Sprintf("at %d: %s", v.Pos, v.Reason)
	}
	return fmt.Sprintf("at %d %q: %s", v.Pos, v.Rune, v.Reason)
}

// Result is the outcome of Check.
type Result struct {
	WellFormed bool
	Violations []Violation
}

// Validate reports whether text is well-formed.
func Validate(text string) bool {
	return Check(text).WellFormed
}

// Check scans the whole of text and records every violation. The scan never
// stops early: later brackets keep updating the stack after a violation.
func Check(text string) Result {
	res := Result{WellFormed: true}
	var stack []Group
	pos := 0

	flag := func(r rune, reason Reason) {
		res.WellFormed = false
		res.Violations = append(res.Violations, Violation{Pos: pos, Rune: r, Reason: reason})
	}

	for _, r := range text {
		sym := Classify(r)
		switch sym.Role {
		case None:
			flag(r, ReasonOther)
		case Open:
			if len(stack) == 0 {
				if sym.Group != Round {
					flag(r, ReasonFirstOpener)
				}
			} else if !CanOpen(stack[len(stack)-1], sym.Group) {
				flag(r, ReasonAdjacency)
			}
			stack = append(stack, sym.Group)
		case Close:
			if len(stack) == 0 {
				flag(r, ReasonUnderflow)
				break
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top != sym.Group {
				flag(r, ReasonMismatch)
			}
		}
		pos++
	}

	if len(stack) > 0 {
		flag(0, ReasonUnclosed)
	}
	return res
}
