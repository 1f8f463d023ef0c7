package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bryanwahyu/scenario-search/internal/domain/scenarios"
)

const runsFixture = `{
  "data": [
    {"runId": 101, "createdTimestamp": "2025-06-10T08:15:00Z"},
    {"runId": "102", "createdTimestamp": "2025-06-11T09:00:00"}
  ]
}`

const reportFixture101 = `{
  "data": {
    "processResults": {
      "101": {
        "processResults": [
          {
            "processId": 7,
            "processName": "Checkout",
            "flows": [
              {
                "flowId": 70,
                "flowName": "Guest checkout",
                "scenarioRunDetails": [
                  {"scenarioId": 9001, "scenarioName": "Pay by card", "rowRunStatus": {"0": true, "1": true}},
                  {"scenarioId": 9002, "scenarioName": "Pay by wallet", "rowRunStatus": {"0": true, "1": false}}
                ]
              }
            ]
          }
        ]
      }
    }
  }
}`

const reportFixture102 = `{
  "data": {
    "processResults": {
      "102": {
        "processResults": [
          {
            "processId": "8",
            "processName": "Login",
            "flows": [
              {
                "flowId": "80",
                "flowName": "SSO",
                "scenarioRunDetails": [
                  {"scenarioId": "9100", "scenarioName": "Okta redirect", "rowRunStatus": {}}
                ]
              }
            ]
          }
        ]
      }
    }
  }
}`

func newTestServer(t *testing.T, reportStatus map[string]int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		switch r.URL.Path {
		case "/getruns":
			w.Write([]byte(runsFixture))
		case "/reportbyrunid":
			runID := r.URL.Query().Get("runId")
			if code, ok := reportStatus[runID]; ok {
				w.WriteHeader(code)
				return
			}
			switch runID {
			case "101":
				w.Write([]byte(reportFixture101))
			case "102":
				w.Write([]byte(reportFixture102))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestFetchAll(t *testing.T) {
	srv := newTestServer(t, nil)
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Token: "secret"}, zap.NewNop())
	reports, err := c.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)

	byRun := map[scenarios.RunID]*scenarios.RunReport{}
	for _, r := range reports {
		byRun[r.RunID] = r
	}

	r101 := byRun["101"]
	require.NotNil(t, r101)
	require.Len(t, r101.Rows, 2)
	assert.Equal(t, "9001", r101.Rows[0].ScenarioID)
	assert.Equal(t, "Pay by card", r101.Rows[0].ScenarioName)
	assert.Equal(t, "7", r101.Rows[0].ProcessID)
	assert.Equal(t, "Checkout", r101.Rows[0].ProcessName)
	assert.Equal(t, "70", r101.Rows[0].FlowID)
	assert.Equal(t, "Guest checkout", r101.Rows[0].FlowName)
	assert.Equal(t, scenarios.StatusPassed, r101.Rows[0].Status)
	assert.Equal(t, scenarios.StatusFailed, r101.Rows[1].Status)
	assert.Equal(t, time.Date(2025, 6, 10, 8, 15, 0, 0, time.UTC), r101.Rows[0].CreatedAt)
	assert.NotEmpty(t, r101.Raw)
	assert.True(t, json.Valid(r101.Raw))

	r102 := byRun["102"]
	require.NotNil(t, r102)
	require.Len(t, r102.Rows, 1)
	assert.Equal(t, scenarios.StatusUnknown, r102.Rows[0].Status)
	assert.Equal(t, time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC), r102.Rows[0].CreatedAt)
}

func TestFetchAllSkipsFailedReports(t *testing.T) {
	srv := newTestServer(t, map[string]int{"101": http.StatusBadGateway})
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Token: "secret"}, zap.NewNop())
	reports, err := c.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, scenarios.RunID("102"), reports[0].RunID)
}

func TestFetchAllEveryReportFailed(t *testing.T) {
	srv := newTestServer(t, map[string]int{
		"101": http.StatusBadGateway,
		"102": http.StatusBadGateway,
	})
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Token: "secret"}, zap.NewNop())
	reports, err := c.FetchAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, scenarios.ErrUpstreamUnavailable)
	assert.Empty(t, reports)
}

func TestFetchAllReportTimeoutFailsBatch(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/getruns" {
			w.Write([]byte(runsFixture))
			return
		}
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := NewClient(Config{BaseURL: srv.URL, Token: "secret"}, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.FetchAll(ctx)
	assert.ErrorIs(t, err, scenarios.ErrUpstreamTimeout)
}

func TestFetchAllRunListDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Token: "secret"}, zap.NewNop())
	_, err := c.FetchAll(context.Background())
	assert.ErrorIs(t, err, scenarios.ErrUpstreamUnavailable)
}

func TestFetchAllRunListGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Token: "secret"}, zap.NewNop())
	_, err := c.FetchAll(context.Background())
	assert.ErrorIs(t, err, scenarios.ErrUpstreamUnavailable)
}

func TestFetchAllTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := NewClient(Config{BaseURL: srv.URL, Token: "secret"}, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.FetchAll(ctx)
	assert.ErrorIs(t, err, scenarios.ErrUpstreamTimeout)
}

func TestCollapseStatus(t *testing.T) {
	assert.Equal(t, scenarios.StatusUnknown, collapseStatus(nil))
	assert.Equal(t, scenarios.StatusUnknown, collapseStatus(map[string]bool{}))
	assert.Equal(t, scenarios.StatusPassed, collapseStatus(map[string]bool{"0": true, "1": true}))
	assert.Equal(t, scenarios.StatusFailed, collapseStatus(map[string]bool{"0": true, "1": false}))
}

func TestParseTimestamp(t *testing.T) {
	fallback := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 6, 10, 8, 15, 0, 0, time.UTC),
		parseTimestamp("2025-06-10T08:15:00Z", fallback))
	assert.Equal(t, time.Date(2025, 6, 10, 1, 15, 0, 0, time.UTC),
		parseTimestamp("2025-06-10T08:15:00+07:00", fallback))
	assert.Equal(t, time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC),
		parseTimestamp("2025-06-11 09:00:00", fallback))
	assert.Equal(t, fallback, parseTimestamp("", fallback))
	assert.Equal(t, fallback, parseTimestamp("next tuesday", fallback))
}

func TestFlexID(t *testing.T) {
	var e struct {
		A flexID `json:"a"`
		B flexID `json:"b"`
		C flexID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 42, "b": "x-7", "c": null}`), &e))
	assert.Equal(t, "42", e.A.String())
	assert.Equal(t, "x-7", e.B.String())
	assert.Equal(t, "", e.C.String())
}
