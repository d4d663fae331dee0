// Package timeline turns sign grammar into an ordered list of word clips.
//
// Tokenize splits and lower-cases the grammar. Resolver applies the two-level
// lookup: the whole token first, then one clip per character. Builder fans
// tokens out over a bounded worker pool, writes each result into the slot of
// its token position, and sums durations only after every worker is done,
// so output order and the total never depend on fetch timing.
package timeline
