// Package naming derives output paths for converted files and keeps two
// inputs of one run from claiming the same output.
//
// Outputs live next to their input as "<prefix><stem>.<container>", so
// "Movie.avi" becomes "conv-Movie.mp4". Files that already carry the prefix
// are outputs of an earlier run and are never treated as inputs.
package naming
