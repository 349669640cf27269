package state

import (
	"log/slog"

	"github.com/roach88/t3ns/internal/ir"
	"github.com/roach88/t3ns/internal/sectors"
	"github.com/roach88/t3ns/internal/sparse"
	"github.com/roach88/t3ns/internal/symmetry"
)

// TargetChange classifies how a snapshot target relates to the configured
// one.
type TargetChange int

const (
	// Compatible targets are equal; nothing to do.
	Compatible TargetChange = iota
	// SeniorityAdjustable targets differ in seniority ranges only.
	SeniorityAdjustable
	// Incompatible targets cannot be reconciled.
	Incompatible
)

func (c TargetChange) String() string {
	switch c {
	case Compatible:
		return "compatible"
	case SeniorityAdjustable:
		return "seniority-adjustable"
	default:
		return "incompatible"
	}
}

// PlanTargetChange classifies the change from old, the target found in a
// snapshot, to the target of the registry. It does not mutate anything.
func (s *State) PlanTargetChange(groups symmetry.Groups, old ir.Labels) (TargetChange, error) {
	configured := s.Registry.Groups()
	if !groups.Equal(configured) {
		return Incompatible, ir.Errorf(ir.ErrCodeSymmetryMismatch,
			"symmetries do not match between configuration and snapshot").
			With("configured", configured.String()).
			With("snapshot", groups.String())
	}
	target := s.Registry.TargetState()
	if len(old) != len(target) {
		return Incompatible, ir.Errorf(ir.ErrCodeSizeMismatch,
			"snapshot target has %d labels for %d symmetries", len(old), len(target))
	}

	change := Compatible
	for i, g := range groups {
		if old[i] == target[i] {
			continue
		}
		if g.Kind() != symmetry.Seniority ||
			symmetry.IsPinnedSeniority(old[i]) || symmetry.IsPinnedSeniority(target[i]) {
			return Incompatible, incompatible(g, old[i], target[i])
		}
		change = SeniorityAdjustable
	}
	return change, nil
}

func incompatible(g symmetry.Group, from, to ir.Label) error {
	return ir.Errorf(ir.ErrCodeTargetIncompatible,
		"not able to change target state from %s to %s for %s",
		g.LabelString(from), g.LabelString(to), g.Kind()).
		With("from", g.LabelString(from)).
		With("to", g.LabelString(to)).
		With("symmetry", g.Kind().String())
}

// ChangeTargetState migrates a state loaded with target old to the
// configured target. Every group is checked first; on rejection the state is
// left untouched.
//
// CRITICAL: callers must hold the state exclusively.
func (s *State) ChangeTargetState(groups symmetry.Groups, old ir.Labels) (TargetChange, error) {
	change, err := s.PlanTargetChange(groups, old)
	if err != nil || change == Compatible {
		return change, err
	}
	target := s.Registry.TargetState()
	for i := range groups {
		if old[i] == target[i] {
			continue
		}
		if err := s.ChangeSeniority(i, old[i], target[i]); err != nil {
			return Incompatible, err
		}
	}
	return change, nil
}

// ChangeSeniority converts the seniority range of group index group from old
// to new: the open bond gets the sectors of the new range, its operators are
// reset to the identity and the tensor feeding it keeps the blocks of
// surviving sectors, gets zero blocks for new sectors and is renormalized.
//
// Only ranges convert; a pinned (negative) seniority is rejected. Equal
// labels are a no-op. The registry target is updated to new on success.
func (s *State) ChangeSeniority(group int, old, new ir.Label) error {
	groups := s.Registry.Groups()
	if group < 0 || group >= len(groups) || groups[group].Kind() != symmetry.Seniority {
		return ir.Errorf(ir.ErrCodeTargetIncompatible, "symmetry %d is not a seniority", group)
	}
	if old == new {
		return nil
	}
	g := groups[group]
	if symmetry.IsPinnedSeniority(old) || symmetry.IsPinnedSeniority(new) {
		return incompatible(g, old, new)
	}

	open, site := s.OpenBond()
	oldList, err := s.Registry.Sectors(open)
	if err != nil {
		return err
	}
	target := s.Registry.TargetState()
	target[group] = new
	newList, err := sectors.TargetSectors(groups, target)
	if err != nil {
		return err
	}

	// Build everything against a scratch registry and commit at the end.
	scratch := s.Registry.Clone()
	if err := scratch.SetTargetState(target); err != nil {
		return err
	}
	if err := scratch.RegisterSectors(open, newList); err != nil {
		return err
	}
	vac, err := sparse.Vacuum(scratch, open, ir.FromRight)
	if err != nil {
		return err
	}

	end := s.Tensors[site]
	remapped := sparse.NewSiteTensor(s.Network, site)
	ts, err := sparse.ValidTriplets(scratch, remapped.Legs)
	if err != nil {
		return err
	}
	var keep []ir.Triplet
	var data [][]float64
	for _, t := range ts {
		oldIdx, existed := oldList.Find(newList[t[2]].Irreps)
		if !existed {
			keep = append(keep, t)
			data = append(data, nil)
			continue
		}
		blk, err := end.BlockFor(ir.Triplet{t[0], t[1], oldIdx})
		if err != nil {
			continue
		}
		keep = append(keep, t)
		data = append(data, blk)
	}
	sizes, err := sparse.BlockSizes(scratch, remapped.Legs, keep)
	if err != nil {
		return err
	}
	remapped.Triplets = keep
	remapped.Blocks = sparse.NewBlocks(sizes)
	for k, blk := range data {
		copy(remapped.Blocks.Block(k), blk)
	}
	prev, err := remapped.Normalize()
	if err != nil {
		return ir.Wrap(ir.ErrCodeTargetIncompatible,
			"end tensor has no weight in seniority "+g.LabelString(new), err)
	}

	if err := s.Registry.SetTargetState(target); err != nil {
		return err
	}
	if err := s.Registry.RegisterSectors(open, newList); err != nil {
		return err
	}
	s.Ops[open] = vac
	s.Tensors[site] = remapped

	slog.Info("seniority changed",
		"from", g.LabelString(old),
		"to", g.LabelString(new),
		"open_bond", open,
		"sectors", len(newList),
		"retained_norm", prev,
	)
	return nil
}
