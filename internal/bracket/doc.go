// Package bracket implements the well-formedness check for bracket
// sequences.
//
// The rule set is not conventional bracket balancing. On top of matching
// every closer against the most recently opened group, it restricts which
// group may be opened while another one is pending:
//
//	pending  may open
//	(        {
//	[        ( [ {
//	{        [
//
// and the first group of a sequence must be a round one. Any rune outside
// the six bracket characters makes the sequence ill-formed but does not stop
// the scan.
package bracket
