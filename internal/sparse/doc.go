// Package sparse stores the block-sparse site tensors and renormalized
// operators of a tree tensor network.
//
// A block is addressed by an ir.Triplet of sector indices, one per leg. Only
// blocks whose triplet satisfies the fusion rule of every configured group
// are ever instantiated; AddBlock and AddCoupling refuse anything else with
// FUSION_RULE_VIOLATION. Block payloads live contiguously in a Blocks value
// addressed through its BeginBlock prefix array.
package sparse
