// Package snapshot persists a state into a store.Container and restores it.
//
// # Layout
//
// The tree below the root is fixed and written in this order:
//
//	/network      topology and sweep
//	/bookkeeper   groups, target state, one sector table per bond and site
//	/hamiltonian  the Hamiltonian symmetry sectors used by operators
//	/T3NS         one tensor_<i> per site
//	/rOps         one rOperator_<i> per attached bond
//
// Block storage lives in block_<k> groups carrying nrBlocks and, only when
// non-zero, the beginblock and tel datasets.
//
// Triplets are packed into one integer per block as t0 + n0*(t1 + n1*t2),
// n being the number of sectors on each leg.
//
// # Reading
//
// Read fills a scratch state and swaps it in only after every section
// validated. A state without symmetry configuration adopts the one found in
// the snapshot; a configured state must match it and then migrates the
// snapshot from its stored target to the configured one.
package snapshot
