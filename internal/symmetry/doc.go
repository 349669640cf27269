// Package symmetry implements the algebra of the symmetry groups a tensor
// network can be decorated with.
//
// Every group variant implements Group: a fusion (tensor product) rule over
// irrep labels, a safe bound on the labels a fusion can produce, a textual
// encoding of labels, and the coupling prefactors needed when tensors and
// operators are recoupled. Variants form a closed set selected by Kind:
//
//	Z2, U1, SU2, C1, Ci, C2, Cs, D2, C2v, C2h, D2h, SENIORITY
//
// The package is stateless. All functions are pure and safe for concurrent
// use; SU(2) prefactors are built on Wigner 6j and 9j symbols evaluated with
// the Racah formula in exact rational arithmetic.
package symmetry
