// Package ir provides the shared vocabulary of the tensor network core.
//
// This package contains the small value types every other internal package
// agrees on: irrep labels, block triplets, tensor legs, operator directions,
// the error taxonomy and the canonical JSON used for structural digests.
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Labels are plain ints; their meaning belongs to a symmetry group
//   - Triplets hold sector indices, never labels
//   - Canonical JSON forbids floats, so digests never depend on rounding
package ir
