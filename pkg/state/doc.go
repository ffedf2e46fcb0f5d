// Package state persists the project-level record of installed packs: the
// packs.json ledger and one manifest snapshot per installed pack.
//
// Both stores are bookkeeping. A corrupt ledger reads as empty and an
// unreadable snapshot reads as absent; neither is fatal.
package state
