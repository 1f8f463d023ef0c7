package scenarios

import (
	"time"
)

// ID tipe untuk Run
type RunID string

// Status enum hasil eksekusi scenario
type RunStatus string

const (
	StatusPassed  RunStatus = "Passed"
	StatusFailed  RunStatus = "Failed"
	StatusUnknown RunStatus = "Unknown"
)

// ScenarioRun satu baris hasil eksekusi scenario dalam sebuah run.
// Immutable setelah ingest; ditulis ulang utuh per run saat refresh.
// JSON tags mengikuti nama kolom upstream (runId, rowRunStatus, dst).
type ScenarioRun struct {
	RunID        RunID     `json:"runId"`
	ScenarioID   string    `json:"scenarioId"`
	ScenarioName string    `json:"scenarioName"`
	ProcessID    string    `json:"processId"`
	ProcessName  string    `json:"processName"`
	FlowID       string    `json:"flowId"`
	FlowName     string    `json:"flowName"`
	Status       RunStatus `json:"rowRunStatus"`
	CreatedAt    time.Time `json:"createdTimestamp"`
	LastUpdated  time.Time `json:"lastUpdated,omitempty"`
}

// RunReport hasil fetch satu run dari upstream: baris yang sudah diekstrak
// plus payload mentah untuk arsip snapshot.
type RunReport struct {
	RunID RunID
	Rows  []*ScenarioRun
	Raw   []byte
}
