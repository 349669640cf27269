package sparse

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/t3ns/internal/ir"
	"github.com/roach88/t3ns/internal/sectors"
)

// Report is the outcome of CheckIntegrity.
type Report struct {
	// Referenced holds, per bond, the sector indices used by any tensor or
	// operator.
	Referenced []*roaring.Bitmap
	Tensors    int
	Operators  int
	Blocks     int
}

// Unused returns, per bond, the sector indices nothing references. Bonds
// without unused sectors are omitted.
func (r *Report) Unused(reg *sectors.Registry) map[int][]int {
	out := map[int][]int{}
	for b, bm := range r.Referenced {
		list, err := reg.Sectors(b)
		if err != nil {
			continue
		}
		for i := range list {
			if !bm.Contains(uint32(i)) {
				out[b] = append(out[b], i)
			}
		}
	}
	return out
}

// CheckIntegrity validates every tensor and attached operator set against
// the registry and collects the referenced sectors of every bond.
//
// Workers read disjoint structures concurrently; the registry must not be
// mutated for the duration of the call.
func CheckIntegrity(ctx context.Context, reg *sectors.Registry, tensors []*SiteTensor, ops []*ROperators) (*Report, error) {
	report := &Report{Referenced: make([]*roaring.Bitmap, reg.NrBonds())}
	for i := range report.Referenced {
		report.Referenced[i] = roaring.New()
	}
	var mu sync.Mutex
	merge := func(local map[int]*roaring.Bitmap, blocks int, tensor bool) {
		mu.Lock()
		defer mu.Unlock()
		for b, bm := range local {
			report.Referenced[b].Or(bm)
		}
		report.Blocks += blocks
		if tensor {
			report.Tensors++
		} else {
			report.Operators++
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, st := range tensors {
		if st == nil {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := st.Validate(reg); err != nil {
				return fmt.Errorf("tensor %d: %w", i, err)
			}
			local := map[int]*roaring.Bitmap{}
			for _, t := range st.Triplets {
				for leg, idx := range t {
					if st.Legs[leg].Kind == ir.LegBond {
						mark(local, st.Legs[leg].Index, idx)
					}
				}
			}
			merge(local, st.NrBlocks(), true)
			return nil
		})
	}
	for i, r := range ops {
		if r == nil || r.IsUnattached() {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := r.Validate(reg); err != nil {
				return fmt.Errorf("operators %d: %w", i, err)
			}
			local := map[int]*roaring.Bitmap{}
			for _, t := range r.Triplets {
				mark(local, r.Bond, t[0])
				mark(local, r.Bond, t[1])
			}
			blocks := 0
			for op := range r.Operators {
				blocks += r.NrBlocksForOperator(op)
			}
			merge(local, blocks, false)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

func mark(local map[int]*roaring.Bitmap, bond, idx int) {
	bm, ok := local[bond]
	if !ok {
		bm = roaring.New()
		local[bond] = bm
	}
	bm.Add(uint32(idx))
}
