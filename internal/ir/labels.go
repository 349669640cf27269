package ir

import "fmt"

// Label is an irrep label in the canonical labeling of its symmetry group.
// Doubled spin for SU(2), signed particle number for U(1), irrep index for
// the abelian point groups.
type Label int

// Labels is one label per configured symmetry group.
type Labels []Label

// Equal reports whether two label tuples are identical.
func (l Labels) Equal(other Labels) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (l Labels) Clone() Labels {
	if l == nil {
		return nil
	}
	out := make(Labels, len(l))
	copy(out, l)
	return out
}

// Triplet holds the sector index of each of the three legs of a block.
//
// For site tensors the legs follow network.Legs: two incoming legs then the
// outgoing leg. For renormalized operators the legs are (bra, ket, hss).
type Triplet [3]int

// Less orders triplets the way their packed quantum numbers order:
// the last leg is the most significant.
func (t Triplet) Less(o Triplet) bool {
	for i := 2; i >= 0; i-- {
		if t[i] != o[i] {
			return t[i] < o[i]
		}
	}
	return false
}

// Compare returns -1, 0 or +1 following Less.
func (t Triplet) Compare(o Triplet) int {
	switch {
	case t.Less(o):
		return -1
	case o.Less(t):
		return 1
	default:
		return 0
	}
}

func (t Triplet) String() string {
	return fmt.Sprintf("(%d,%d,%d)", t[0], t[1], t[2])
}

// PackTriplet packs a triplet into a single quantum number given the number
// of sectors on each leg: t0 + n0*(t1 + n1*t2).
func PackTriplet(t Triplet, n [3]int) int64 {
	return int64(t[0]) + int64(n[0])*(int64(t[1])+int64(n[1])*int64(t[2]))
}

// UnpackTriplet is the inverse of PackTriplet.
// Returns false if q does not address a valid triplet for n.
func UnpackTriplet(q int64, n [3]int) (Triplet, bool) {
	if q < 0 || n[0] <= 0 || n[1] <= 0 || n[2] <= 0 {
		return Triplet{}, false
	}
	var t Triplet
	t[0] = int(q % int64(n[0]))
	q /= int64(n[0])
	t[1] = int(q % int64(n[1]))
	q /= int64(n[1])
	if q >= int64(n[2]) {
		return Triplet{}, false
	}
	t[2] = int(q)
	return t, true
}

// LegKind distinguishes what a tensor leg is attached to.
type LegKind int

const (
	// LegBond is a virtual bond of the network.
	LegBond LegKind = iota
	// LegSite is the physical leg of a physical site.
	LegSite
	// LegHSS is the Hamiltonian symmetry sector leg of an operator.
	LegHSS
)

// Leg identifies a tensor leg. Index is the bond, physical site or unused
// for LegHSS.
type Leg struct {
	Kind  LegKind
	Index int
}

// BondLeg returns the leg attached to bond b.
func BondLeg(b int) Leg { return Leg{Kind: LegBond, Index: b} }

// SiteLeg returns the physical leg of physical site p.
func SiteLeg(p int) Leg { return Leg{Kind: LegSite, Index: p} }

// HSSLeg is the operator symmetry leg.
var HSSLeg = Leg{Kind: LegHSS}

func (l Leg) String() string {
	switch l.Kind {
	case LegBond:
		return fmt.Sprintf("bond %d", l.Index)
	case LegSite:
		return fmt.Sprintf("site %d", l.Index)
	default:
		return "hss"
	}
}

// Direction tells from which side of a bond a renormalized operator set was
// accumulated.
type Direction int

const (
	// Unattached marks an operator set not yet bound to a bond.
	Unattached Direction = -1
	// FromRight accumulates from the right of the bond.
	FromRight Direction = 0
	// FromLeft accumulates from the left of the bond.
	FromLeft Direction = 1
)

func (d Direction) String() string {
	switch d {
	case FromLeft:
		return "left"
	case FromRight:
		return "right"
	default:
		return "unattached"
	}
}
