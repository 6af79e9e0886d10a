package run

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"

	"gosurv/domain/core"
	"gosurv/domain/survival"
)

// Sample sources
const (
	SourceSimulated = "simulated"
	SourceInput     = "input"
)

// StreamCheckDraws is how many leading draws of each named stream a manifest records
const StreamCheckDraws = 4

// RunFingerprint ensures deterministic replay
type RunFingerprint struct {
	ParameterHash core.Hash `json:"parameter_hash"`
	Seed          uint64    `json:"seed"`
	GridPoints    int       `json:"grid_points"`
	CodeVersion   string    `json:"code_version"`
	InputHash     core.Hash `json:"input_hash,omitempty"` // set when the sample was read from a file
	Fingerprint   core.Hash `json:"fingerprint"`          // Hash of all above
}

// StreamCheck records the first draws of a named random stream so a replay
// can confirm the generator still produces the same sequence
type StreamCheck struct {
	Name  string    `json:"name"`
	Draws []float64 `json:"draws"`
}

// NewRunFingerprint creates a fingerprint from determinism parameters.
// inputHash is empty for simulated samples.
func NewRunFingerprint(spec survival.SampleSpec, gridPoints int, codeVersion string, inputHash core.Hash) RunFingerprint {
	paramHash := core.ComputeParameterHash(spec.Parameters())
	return RunFingerprint{
		ParameterHash: paramHash,
		Seed:          spec.Seed,
		GridPoints:    gridPoints,
		CodeVersion:   codeVersion,
		InputHash:     inputHash,
		Fingerprint:   computeRunFingerprint(paramHash, spec.Seed, gridPoints, codeVersion, inputHash),
	}
}

// computeRunFingerprint generates deterministic hash from all determinism parameters
func computeRunFingerprint(paramHash core.Hash, seed uint64, gridPoints int, codeVersion string, inputHash core.Hash) core.Hash {
	data := fmt.Sprintf("params:%s|seed:%d|grid:%d|code:%s|input:%s", paramHash, seed, gridPoints, codeVersion, inputHash)
	hash := sha256.Sum256([]byte(data))
	return core.Hash(fmt.Sprintf("%x", hash))
}

// HashSample hashes the subjects of a sample in order: 8 bytes of time bits
// and one status byte per subject
func HashSample(sample *survival.Sample) core.Hash {
	buf := make([]byte, 0, 9*sample.Len())
	for i := 0; i < sample.Len(); i++ {
		sub := sample.Subject(i)
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(sub.Time))
		if sub.Status {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}
	return core.NewHash(buf)
}
