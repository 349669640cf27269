// Package state owns the global state of a tree tensor network run: the
// sector registry, the topology, one site tensor per site and one
// renormalized operator set per bond.
//
// OWNERSHIP:
//
// A State is single-owner. Tensors and operator sets reference sectors by
// (bond, index) only, never by pointer, so replacing a sector list is a
// matter of rewriting the structures that index into it. Structural
// mutations and persistence run inside Exclusive, which holds the state for
// the whole callback and releases it on every exit path.
//
// LIFECYCLE:
//
// A State is created by Fresh (registry and topology first, then tensors and
// operators consistent with them) or by reading a snapshot into New, and
// dropped with Release. Workers may read a state concurrently as long as no
// mutation runs; see sparse.CheckIntegrity.
//
// MIGRATION:
//
// ChangeTargetState reconciles the target state of a loaded snapshot with
// the configured one. Every group is checked before anything is mutated, so
// a rejected migration leaves the state as it was.
package state
