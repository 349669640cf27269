// Package sectors holds the symmetry sector registry: for every bond and
// every physical site of the network, the ordered list of (irrep tuple,
// dimension) sectors that tensors and operators index into.
//
// Sector indices stored anywhere else in the state are back-references into
// these lists. Replacing a list (RegisterSectors) is only valid while the
// caller holds the state exclusively.
package sectors
