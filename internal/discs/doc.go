// Package discs derives the physical media layout of a release from its track
// position codes.
//
// Positions are never stored split apart: ParsePosition recovers the disc or
// side token and the track number on demand. Assign groups vinyl sides
// pairwise into synthesized "LP<n>" discs and other media by their disc token,
// pairing each disc with the release's declared formats by index.
package discs
