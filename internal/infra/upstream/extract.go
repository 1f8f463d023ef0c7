package upstream

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/bryanwahyu/scenario-search/internal/domain/scenarios"
)

// flexID terima string maupun angka JSON, API report kadang kirim dua-duanya.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

func (f flexID) String() string { return string(f) }

// runsEnvelope bentuk respons GET /getruns.
type runsEnvelope struct {
	Data []runEntry `json:"data"`
}

type runEntry struct {
	RunID            flexID `json:"runId"`
	CreatedTimestamp string `json:"createdTimestamp"`
}

// reportEnvelope bentuk respons GET /reportbyrunid?runId=X.
// data.processResults di-key pakai runId, lalu nested lagi processResults per proses.
type reportEnvelope struct {
	Data struct {
		ProcessResults map[string]runResult `json:"processResults"`
	} `json:"data"`
}

type runResult struct {
	ProcessResults []processResult `json:"processResults"`
}

type processResult struct {
	ProcessID   flexID       `json:"processId"`
	ProcessName string       `json:"processName"`
	Flows       []flowResult `json:"flows"`
}

type flowResult struct {
	FlowID             flexID          `json:"flowId"`
	FlowName           string          `json:"flowName"`
	ScenarioRunDetails []scenarioEntry `json:"scenarioRunDetails"`
}

type scenarioEntry struct {
	ScenarioID   flexID          `json:"scenarioId"`
	ScenarioName string          `json:"scenarioName"`
	RowRunStatus map[string]bool `json:"rowRunStatus"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTimestamp coba beberapa layout yang pernah muncul dari API.
// Gagal parse atau kosong fallback ke waktu fetch.
func parseTimestamp(s string, fallback time.Time) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return fallback.UTC()
}

// collapseStatus rangkum map row->bool jadi satu status per skenario.
// Satu row gagal berarti skenarionya gagal, map kosong berarti tidak jalan.
func collapseStatus(rows map[string]bool) scenarios.RunStatus {
	if len(rows) == 0 {
		return scenarios.StatusUnknown
	}
	for _, ok := range rows {
		if !ok {
			return scenarios.StatusFailed
		}
	}
	return scenarios.StatusPassed
}

// extractRows flatten payload report jadi baris ScenarioRun untuk satu run.
func extractRows(runID scenarios.RunID, env *reportEnvelope, createdAt time.Time) []*scenarios.ScenarioRun {
	result, ok := env.Data.ProcessResults[string(runID)]
	if !ok {
		return nil
	}
	var rows []*scenarios.ScenarioRun
	for _, proc := range result.ProcessResults {
		for _, flow := range proc.Flows {
			for _, sc := range flow.ScenarioRunDetails {
				rows = append(rows, &scenarios.ScenarioRun{
					RunID:        runID,
					ScenarioID:   sc.ScenarioID.String(),
					ScenarioName: sc.ScenarioName,
					ProcessID:    proc.ProcessID.String(),
					ProcessName:  proc.ProcessName,
					FlowID:       flow.FlowID.String(),
					FlowName:     flow.FlowName,
					Status:       collapseStatus(sc.RowRunStatus),
					CreatedAt:    createdAt,
				})
			}
		}
	}
	return rows
}
