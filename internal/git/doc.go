// Package git fetches a single tagged revision of a repository into the workspace.
//
// Every fetch removes the previous checkout for the repository first, then
// performs a shallow single-reference clone with go-git. There is no
// incremental update path: a checkout is always clean and reproducible.
package git
