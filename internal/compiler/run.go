// Package compiler turns CUE run configurations into validated state
// configurations.
package compiler

import (
	_ "embed"
	"fmt"
	"strconv"

	"cuelang.org/go/cue"

	"github.com/roach88/t3ns/internal/ir"
	"github.com/roach88/t3ns/internal/network"
	"github.com/roach88/t3ns/internal/sectors"
	"github.com/roach88/t3ns/internal/state"
	"github.com/roach88/t3ns/internal/store"
	"github.com/roach88/t3ns/internal/symmetry"
)

//go:embed schema.cue
var schemaSource []byte

// DefaultSeed seeds the random fill of fresh tensors when a run does not
// name one.
const DefaultSeed = 1

// Run is a compiled run configuration.
type Run struct {
	Groups    symmetry.Groups
	Target    ir.Labels
	Network   *network.Network
	MaxDim    int
	HSS       sectors.List
	Physical  sectors.List
	OrbIrreps []ir.Label
	Snapshot  Snapshot
	Seed      uint64
}

// Snapshot names where a run keeps its snapshot.
type Snapshot struct {
	Dir   string
	Codec store.Codec
}

// Config returns the state configuration of the run.
func (r *Run) Config() state.Config {
	return state.Config{
		Groups:    r.Groups,
		Target:    r.Target.Clone(),
		Network:   r.Network,
		MaxDim:    r.MaxDim,
		HSS:       r.HSS.Clone(),
		Physical:  r.Physical.Clone(),
		OrbIrreps: append([]ir.Label(nil), r.OrbIrreps...),
	}
}

// CompileRun compiles a CUE value into a Run.
//
// The value is first unified with the #Run schema, so type errors carry CUE
// positions. Labels are then parsed against the configured groups.
func CompileRun(v cue.Value) (*Run, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	schema := v.Context().CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile run schema: %w", err)
	}
	v = schema.LookupPath(cue.ParsePath("#Run")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	run := &Run{Seed: DefaultSeed}
	var err error

	symVal := v.LookupPath(cue.ParsePath("symmetries"))
	var names []string
	if err := symVal.Decode(&names); err != nil {
		return nil, formatCUEError(err)
	}
	if run.Groups, err = symmetry.Parse(names); err != nil {
		return nil, wrap("symmetries", symVal, err)
	}

	targetVal := v.LookupPath(cue.ParsePath("target"))
	if run.Target, err = parseLabels(run.Groups, targetVal); err != nil {
		return nil, err
	}

	if run.Network, err = parseNetwork(v.LookupPath(cue.ParsePath("network"))); err != nil {
		return nil, err
	}

	if maxDim := v.LookupPath(cue.ParsePath("sectors.maxdim")); maxDim.Exists() {
		n, err := maxDim.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		run.MaxDim = int(n)
	}

	if hss := v.LookupPath(cue.ParsePath("hamiltonian.sectors")); hss.Exists() {
		if run.HSS, err = parseSectors(run.Groups, hss); err != nil {
			return nil, err
		}
	}
	if phys := v.LookupPath(cue.ParsePath("physical")); phys.Exists() {
		if run.Physical, err = parseSectors(run.Groups, phys); err != nil {
			return nil, err
		}
	}

	if orbVal := v.LookupPath(cue.ParsePath("orbirreps")); orbVal.Exists() {
		if run.OrbIrreps, err = parseOrbIrreps(run.Groups, orbVal); err != nil {
			return nil, err
		}
		if len(run.OrbIrreps) != run.Network.NrPhysical() {
			return nil, &CompileError{
				Field: "orbirreps",
				Message: fmt.Sprintf("%d orbital irreps for %d orbitals",
					len(run.OrbIrreps), run.Network.NrPhysical()),
				Pos: orbVal.Pos(),
				Err: ir.ErrStructuralSizeMismatch,
			}
		}
	}

	if run.Snapshot, err = parseSnapshot(v.LookupPath(cue.ParsePath("snapshot"))); err != nil {
		return nil, err
	}

	if seed := v.LookupPath(cue.ParsePath("seed")); seed.Exists() {
		n, err := seed.Uint64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		run.Seed = n
	}
	return run, nil
}

// wrap attaches the field and position of v to a domain error.
func wrap(field string, v cue.Value, err error) error {
	return &CompileError{Field: field, Message: err.Error(), Pos: v.Pos(), Err: err}
}

// labelTexts reads a list of labels written either as strings or as
// integers.
func labelTexts(v cue.Value) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var texts []string
	for iter.Next() {
		e := iter.Value()
		switch e.IncompleteKind() {
		case cue.IntKind:
			n, err := e.Int64()
			if err != nil {
				return nil, formatCUEError(err)
			}
			texts = append(texts, strconv.FormatInt(n, 10))
		default:
			s, err := e.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			texts = append(texts, s)
		}
	}
	return texts, nil
}

func parseLabels(groups symmetry.Groups, v cue.Value) (ir.Labels, error) {
	texts, err := labelTexts(v)
	if err != nil {
		return nil, err
	}
	labels, err := groups.ParseLabels(texts)
	if err != nil {
		return nil, wrap(v.Path().String(), v, err)
	}
	return labels, nil
}

func parseNetwork(v cue.Value) (*network.Network, error) {
	if chain := v.LookupPath(cue.ParsePath("chain")); chain.Exists() {
		n, err := chain.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		net, err := network.Chain(int(n))
		if err != nil {
			return nil, wrap("network.chain", chain, err)
		}
		return net, nil
	}

	bondsVal := v.LookupPath(cue.ParsePath("bonds"))
	var bonds []network.Bond
	if bondsVal.IncompleteKind() == cue.StringKind {
		text, err := bondsVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if bonds, err = network.ParseBonds(text); err != nil {
			return nil, wrap("network.bonds", bondsVal, err)
		}
	} else {
		var pairs [][]int
		if err := bondsVal.Decode(&pairs); err != nil {
			return nil, formatCUEError(err)
		}
		for _, p := range pairs {
			bonds = append(bonds, network.Bond{p[0], p[1]})
		}
	}

	orbVal := v.LookupPath(cue.ParsePath("sitetoorb"))
	var siteToOrb []int
	if err := orbVal.Decode(&siteToOrb); err != nil {
		return nil, formatCUEError(err)
	}
	net, err := network.New(bonds, siteToOrb)
	if err != nil {
		return nil, wrap("network", v, err)
	}
	return net, nil
}

func parseSectors(groups symmetry.Groups, v cue.Value) (sectors.List, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	list := sectors.List{}
	for iter.Next() {
		e := iter.Value()
		irreps, err := parseLabels(groups, e.LookupPath(cue.ParsePath("irreps")))
		if err != nil {
			return nil, err
		}
		dim, err := e.LookupPath(cue.ParsePath("dim")).Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		sec := sectors.Sector{Irreps: irreps, Dim: int(dim)}
		if fci := e.LookupPath(cue.ParsePath("fcidim")); fci.Exists() {
			if sec.FCIDim, err = fci.Float64(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if _, dup := list.Find(irreps); dup {
			return nil, &CompileError{
				Field:   e.Path().String(),
				Message: fmt.Sprintf("duplicate sector %s", groups.FormatLabels(irreps)),
				Pos:     e.Pos(),
			}
		}
		list = append(list, sec)
	}
	list.Sort()
	return list, nil
}

func parseOrbIrreps(groups symmetry.Groups, v cue.Value) ([]ir.Label, error) {
	k, ok := groups.PointGroup()
	if !ok {
		return nil, &CompileError{
			Field:   "orbirreps",
			Message: "orbital irreps need a point group symmetry",
			Pos:     v.Pos(),
		}
	}
	g := groups[groups.Index(k)]
	texts, err := labelTexts(v)
	if err != nil {
		return nil, err
	}
	out := make([]ir.Label, len(texts))
	for i, text := range texts {
		l, ok := g.ParseLabel(text)
		if !ok {
			return nil, &CompileError{
				Field:   "orbirreps",
				Message: fmt.Sprintf("%q is not a %s irrep", text, k),
				Pos:     v.Pos(),
				Err:     ir.ErrInvalidIrrepText,
			}
		}
		out[i] = l
	}
	return out, nil
}

func parseSnapshot(v cue.Value) (Snapshot, error) {
	snap := Snapshot{Dir: ".", Codec: store.CodecZstd}
	if !v.Exists() {
		return snap, nil
	}
	if dir := v.LookupPath(cue.ParsePath("dir")); dir.Exists() {
		s, err := dir.String()
		if err != nil {
			return snap, formatCUEError(err)
		}
		snap.Dir = s
	}
	if codec := v.LookupPath(cue.ParsePath("codec")); codec.Exists() {
		s, err := codec.String()
		if err != nil {
			return snap, formatCUEError(err)
		}
		c, err := store.ParseCodec(s)
		if err != nil {
			return snap, wrap("snapshot.codec", codec, err)
		}
		snap.Codec = c
	}
	return snap, nil
}
