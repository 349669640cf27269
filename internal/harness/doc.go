// Package harness runs state lifecycle scenarios.
//
// A scenario names a CUE run configuration and a list of steps: build a
// fresh state, save it to a snapshot container, load it back (optionally
// under another run configuration, which may trigger a target migration).
// Assertions then check the final state, and RunWithGolden compares the
// canonical structure dump against testdata/golden.
//
// # Scenario Format
//
//	name: seniority_narrowing
//	description: "Narrow the seniority range of a saved state"
//	run: runs/u1_seniority.cue
//	store: sqlite
//	steps:
//	  - action: fresh
//	  - action: save
//	    codec: lz4
//	  - action: load
//	    run: runs/u1_seniority_0.cue
//	    expect:
//	      migration: seniority-adjustable
//	assertions:
//	  - type: target
//	    labels: ["2", "0"]
//	  - type: sectors
//	    bond: 1
//	    irreps: ["(2, 0)"]
//	  - type: norm
//	    site: 0
//	    value: 1
//
// Paths are relative to the scenario file.
//
// # Steps
//
//   - fresh: random normalized state from the run (or the step's run)
//   - save: write the state to the scenario container
//   - load: read the container into a state configured by the step's run,
//     into an unconfigured state when unconfigured is set, or back into a
//     released state when neither is given
//   - release: drop tensors and operators, keeping the topology
//
// A step with expect.error must fail with that error code; the state is
// left as it was.
//
// # Assertions
//
//   - target: the target state labels
//   - sectors: the sector irreps (and optionally dims) of a bond
//   - blocks: the number of blocks of a site tensor
//   - norm: the Frobenius norm of a site tensor
//   - integrity: every tensor and operator set checks out
//   - digest_stable: the structure digest equals the one at the last save
package harness
