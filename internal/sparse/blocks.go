package sparse

import (
	"math"
	"slices"

	"github.com/roach88/t3ns/internal/ir"
)

// Blocks is contiguous storage for a run of dense blocks. Block k occupies
// Tel[BeginBlock[k]:BeginBlock[k+1]]. Zero blocks means both slices are nil.
type Blocks struct {
	BeginBlock []int
	Tel        []float64
}

// NewBlocks allocates zeroed storage for blocks of the given sizes.
func NewBlocks(sizes []int) Blocks {
	if len(sizes) == 0 {
		return Blocks{}
	}
	begin := make([]int, len(sizes)+1)
	for k, s := range sizes {
		begin[k+1] = begin[k] + s
	}
	var tel []float64
	if total := begin[len(sizes)]; total > 0 {
		tel = make([]float64, total)
	}
	return Blocks{BeginBlock: begin, Tel: tel}
}

// NrBlocks returns the number of blocks.
func (b Blocks) NrBlocks() int {
	if len(b.BeginBlock) == 0 {
		return 0
	}
	return len(b.BeginBlock) - 1
}

// Block returns the payload of block k. The slice aliases Tel.
func (b Blocks) Block(k int) []float64 {
	lo, hi := b.BeginBlock[k], b.BeginBlock[k+1]
	return b.Tel[lo:hi:hi]
}

// Size returns the number of elements of block k.
func (b Blocks) Size(k int) int {
	return b.BeginBlock[k+1] - b.BeginBlock[k]
}

// Len returns the total number of stored elements.
func (b Blocks) Len() int { return len(b.Tel) }

// Validate checks the prefix array against the expected block count.
func (b Blocks) Validate(nr int) error {
	if nr == 0 {
		if b.BeginBlock != nil || b.Tel != nil {
			return ir.Errorf(ir.ErrCodeSizeMismatch, "zero blocks must have no buffers")
		}
		return nil
	}
	if len(b.BeginBlock) != nr+1 {
		return ir.Errorf(ir.ErrCodeSizeMismatch,
			"beginblock has %d entries for %d blocks", len(b.BeginBlock), nr)
	}
	if b.BeginBlock[0] != 0 {
		return ir.Errorf(ir.ErrCodeSizeMismatch, "beginblock starts at %d", b.BeginBlock[0])
	}
	for k := 0; k < nr; k++ {
		if b.BeginBlock[k+1] < b.BeginBlock[k] {
			return ir.Errorf(ir.ErrCodeSizeMismatch, "beginblock decreases at block %d", k)
		}
	}
	if b.BeginBlock[nr] != len(b.Tel) {
		return ir.Errorf(ir.ErrCodeSizeMismatch,
			"beginblock ends at %d, tel has %d elements", b.BeginBlock[nr], len(b.Tel))
	}
	return nil
}

// Clone returns a deep copy.
func (b Blocks) Clone() Blocks {
	return Blocks{BeginBlock: slices.Clone(b.BeginBlock), Tel: slices.Clone(b.Tel)}
}

// Equal compares layout and payload bit for bit.
func (b Blocks) Equal(o Blocks) bool {
	if !slices.Equal(b.BeginBlock, o.BeginBlock) || len(b.Tel) != len(o.Tel) {
		return false
	}
	for i := range b.Tel {
		if math.Float64bits(b.Tel[i]) != math.Float64bits(o.Tel[i]) {
			return false
		}
	}
	return true
}

// insert places data as block k, shifting later blocks.
func (b *Blocks) insert(k int, data []float64) {
	if b.BeginBlock == nil {
		b.BeginBlock = []int{0}
	}
	at := b.BeginBlock[k]
	if len(data) > 0 {
		b.Tel = slices.Insert(b.Tel, at, data...)
	}
	b.BeginBlock = slices.Insert(b.BeginBlock, k+1, at+len(data))
	for i := k + 2; i < len(b.BeginBlock); i++ {
		b.BeginBlock[i] += len(data)
	}
}
