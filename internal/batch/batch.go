// Package batch holds the records exchanged between input reading, the
// dispatcher and the output sinks, and the reader for the line-oriented
// input format.
package batch

import "strconv"

// Item is one input string together with its 0-based position in the batch.
type Item struct {
	Index int
	Text  string
}

// Verdict is the result for one Item. Index is 1-based.
type Verdict struct {
	Index      int  `json:"index"`
	WellFormed bool `json:"well_formed"`
}

// String renders the verdict as an output line without the trailing newline.
func (v Verdict) String() string {
	return strconv.Itoa(v.Index) + ":" + strconv.FormatBool(v.WellFormed)
}

// Header carries the two count lines that precede the strings.
type Header struct {
	Cases   int
	Samples int
}

// Lines is the number of strings the header announces.
func (h Header) Lines() int {
	return h.Cases * h.Samples
}
