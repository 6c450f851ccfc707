// Package align pairs a release's tracks with the tracks of its matched
// second-catalog release.
//
// Each local/remote pair is scored by a weighted blend of fuzzy title
// distance and a flat penalty for differing position strings. The resulting
// rectangular cost matrix is solved for minimum total cost with the Hungarian
// method, padded to square. Tracks left over when the lists differ in length
// stay unmatched.
package align
