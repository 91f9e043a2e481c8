// Package sensitivity coordinates IRR/MOIC matrix generation with the remote
// spreadsheet engine: one request per input change, polling while the engine
// works, and a bounded wait.
package sensitivity

import (
	"time"

	"github.com/Veraticus/proforma/internal/model"
)

// State is the lifecycle position of one model version's matrices.
type State int

// Generation states.
const (
	Idle State = iota
	Requesting
	Generating
	Ready
	Failed
	TimedOut
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requesting:
		return "requesting"
	case Generating:
		return "generating"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// InFlight reports whether a request or poll loop owns the session.
func (s State) InFlight() bool {
	return s == Requesting || s == Generating
}

// Snapshot is a point-in-time copy of a session. Result always holds both
// matrices; they are empty unless State is Ready.
type Snapshot struct {
	UpdatedAt time.Time
	Err       error
	Key       model.SensitivityKey
	VersionID string
	Result    model.SensitivityResult
	Polls     int
	State     State
}

func emptySnapshot(versionID string) Snapshot {
	return Snapshot{
		VersionID: versionID,
		State:     Idle,
		Result:    emptyResult(),
	}
}

func emptyResult() model.SensitivityResult {
	return model.SensitivityResult{
		IRR:  model.EmptySensitivityTable(),
		MOIC: model.EmptySensitivityTable(),
	}
}

func (s Snapshot) clone() Snapshot {
	s.Result = s.Result.Clone()
	return s
}
