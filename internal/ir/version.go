package ir

// Version constants for the snapshot format and the core.
const (
	// FormatVersion is the snapshot layout version written to every container.
	FormatVersion = "1"

	// CoreVersion is the version of the tensor network core.
	CoreVersion = "0.1.0"
)

// MaxSymmetries is the largest number of symmetry groups this build can carry.
// Snapshots declaring more groups cannot be read.
const MaxSymmetries = 5
