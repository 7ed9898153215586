// Package workspace manages the scratch directory repositories are checked out into.
//
// Persistent mode uses a fixed directory (./tmp by default) that is kept after
// the run so checkouts can be inspected; every fetch still replaces the
// repository's own subdirectory.
//
// Ephemeral mode creates a timestamped directory (e.g. refgen-20261017-122336)
// and removes it completely on Cleanup.
package workspace
