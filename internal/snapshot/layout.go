package snapshot

import (
	"fmt"
	"path/filepath"
)

// symmetrySlots is the number of slots an irreps row is padded to. It only
// fixes the row width; the group limit is ir.MaxSymmetries.
const symmetrySlots = 6

// Root attributes identifying the writer and the stored structure.
const (
	attrFormatVersion = "format_version"
	attrCoreVersion   = "core_version"
	attrDigest        = "structure_digest"
)

// FileName is the snapshot file written by Save.
const FileName = "T3NScalc.db"

// FilePath returns the snapshot path inside dir.
func FilePath(dir string) string {
	return filepath.Join(dir, FileName)
}

const (
	groupNetwork     = "network"
	groupBookkeeper  = "bookkeeper"
	groupHamiltonian = "hamiltonian"
	groupTensors     = "T3NS"
	groupOperators   = "rOps"
	groupHSS         = "hss"
)

func bondSectorsName(b int) string { return fmt.Sprintf("v_symsec_%d", b) }
func siteSectorsName(s int) string { return fmt.Sprintf("p_symsec_%d", s) }
func tensorName(s int) string      { return fmt.Sprintf("tensor_%d", s) }
func operatorName(b int) string    { return fmt.Sprintf("rOperator_%d", b) }
func blockName(k int) string       { return fmt.Sprintf("block_%d", k) }
