package symmetry

import "github.com/roach88/t3ns/internal/ir"

// MatVecCase selects how a Hamiltonian term acts in the matrix-vector product.
type MatVecCase int

const (
	// MatVecDirect applies the operators as stored.
	MatVecDirect MatVecCase = iota
	// MatVecAdjoint applies the hermitian conjugate of the first operator.
	MatVecAdjoint
)

// BranchCase selects which leg of a coupled pair an operator acts on while
// renormalizing an interior branch.
type BranchCase int

const (
	// BranchFirst acts on the first incoming leg only.
	BranchFirst BranchCase = iota
	// BranchSecond acts on the second incoming leg only.
	BranchSecond
	// BranchBoth acts on both incoming legs with a coupled operator.
	BranchBoth
)

// Coupler is the family of coupling prefactors of a group. Each method is a
// pure function of a few local labels. Label layouts:
//
//   - a coupling triple is (a, b, c) for a ⊗ b -> c
//   - [2][3] holds the bra coupling then the ket coupling
//   - [3][3] holds the bra coupling, the ket coupling and the operator ranks
//     (k1, k2, k) acting on the first leg, the second leg and the total
//
// A label layout that violates the selection rules yields 0.
type Coupler interface {
	// MirrorCoupling relates a ⊗ b -> c to the mirrored coupling
	// c ⊗ b̄ -> a used when bra and ket are exchanged.
	MirrorCoupling(v [3]ir.Label) float64

	// AppendPhysical recouples when a physical leg is appended while growing
	// the network. v = (a, b, c, d, e, f): left form ((a b)c, d; f) to
	// (a, (b d)e; f); right form ((a b)c, d; f) to ((a d)e, b; f).
	AppendPhysical(v [6]ir.Label, isLeft bool) float64

	// MatVec is the prefactor of one term of H|psi> at a site tensor.
	MatVec(v [3][3]ir.Label, c MatVecCase) float64

	// AddPOperator is the sign picked up by inserting the parity (number
	// conserving) operator on the left or right incoming leg.
	AddPOperator(v [2][3]ir.Label, isLeft bool) float64

	// CombineMPOs couples an operator of rank mpo[0] on the first leg with one
	// of rank mpo[1] on the second leg into total rank mpo[2].
	CombineMPOs(v [2][3]ir.Label, mpo [3]ir.Label) float64

	// UpdateBranch is the prefactor of renormalizing an interior branch.
	UpdateBranch(v [3][3]ir.Label, c BranchCase) float64
}

// abelianCoupler gives unity for every recoupling: one-dimensional irreps
// carry no Clebsch-Gordan structure.
type abelianCoupler struct{}

func (abelianCoupler) MirrorCoupling([3]ir.Label) float64              { return 1 }
func (abelianCoupler) AppendPhysical([6]ir.Label, bool) float64        { return 1 }
func (abelianCoupler) MatVec([3][3]ir.Label, MatVecCase) float64       { return 1 }
func (abelianCoupler) AddPOperator([2][3]ir.Label, bool) float64       { return 1 }
func (abelianCoupler) CombineMPOs([2][3]ir.Label, [3]ir.Label) float64 { return 1 }
func (abelianCoupler) UpdateBranch([3][3]ir.Label, BranchCase) float64 { return 1 }
