// Package dispatcher fans a batch of items out to concurrent validation
// units and fans their verdicts back in to a single emitter.
//
// Every item gets its own goroutine. Units share nothing: each owns its item
// and its own validator stack. A unit that panics is recovered and counted as
// failed; its index simply produces no verdict. Verdicts travel over a channel
// to one collector goroutine, which is the only caller of the emitter, so
// output lines never interleave. Run returns once every unit has finished and
// the collector has drained.
package dispatcher
