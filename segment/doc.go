// Package segment splits document text into bounded windows.
//
// Text is whitespace-normalized and cut greedily at word boundaries into
// windows of MinLen to MaxLen runes. Pieces shorter than MinLen are merged
// into their neighbour. When the greedy pass yields fewer than MinSegments
// windows, the text is re-split into four equal-width windows instead, so
// that every document of reasonable length produces enough segments for
// retrieval.
//
// Lengths are measured in runes, never bytes, so a window never splits a
// UTF-8 sequence.
package segment
