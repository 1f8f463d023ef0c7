package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/scenario-search/internal/domain/scenarios"
)

const (
	defaultTimeout = 30 * time.Second
	// defaultConcurrency batas paralel request reportbyrunid.
	defaultConcurrency = 4
)

// Config koneksi ke automation-reports API. Timeout dan Concurrency
// nol berarti pakai default.
type Config struct {
	BaseURL     string
	Token       string
	Timeout     time.Duration
	Concurrency int
}

// Client adapter scenarios.Source untuk automation-reports REST API.
type Client struct {
	baseURL string
	token   string
	conc    int
	http    *http.Client
	log     *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		conc:    cfg.Concurrency,
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log,
	}
}

// FetchAll ambil semua run lalu fan-out report per run.
// Run yang reportnya gagal di-skip dengan warning, bukan membatalkan batch;
// kalau semua gagal, error pertama dibalikin supaya tidak kebaca dataset kosong.
func (c *Client) FetchAll(ctx context.Context) ([]*scenarios.RunReport, error) {
	fetchedAt := time.Now().UTC()

	var runs runsEnvelope
	if _, err := c.getJSON(ctx, c.baseURL+"/getruns", &runs); err != nil {
		return nil, fmt.Errorf("fetch runs: %w", err)
	}
	c.log.Info("fetched run list", zap.Int("runs", len(runs.Data)))
	if len(runs.Data) == 0 {
		return nil, nil
	}

	reports := make([]*scenarios.RunReport, len(runs.Data))
	var (
		mu       sync.Mutex
		firstErr error
	)
	attempted := 0
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.conc)
	for i, entry := range runs.Data {
		if entry.RunID == "" {
			continue
		}
		attempted++
		i, entry := i, entry
		g.Go(func() error {
			runID := scenarios.RunID(entry.RunID.String())
			report, err := c.fetchReport(gctx, runID, parseTimestamp(entry.CreatedTimestamp, fetchedAt))
			if err != nil {
				c.log.Warn("skipping run, report fetch failed",
					zap.String("runId", string(runID)),
					zap.Error(err))
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := reports[:0]
	for _, r := range reports {
		if r != nil {
			out = append(out, r)
		}
	}
	if len(out) == 0 && firstErr != nil {
		return nil, fmt.Errorf("all %d report fetches failed: %w", attempted, firstErr)
	}
	return out, nil
}

func (c *Client) fetchReport(ctx context.Context, runID scenarios.RunID, createdAt time.Time) (*scenarios.RunReport, error) {
	u := fmt.Sprintf("%s/reportbyrunid?runId=%s", c.baseURL, url.QueryEscape(string(runID)))
	var env reportEnvelope
	raw, err := c.getJSON(ctx, u, &env)
	if err != nil {
		return nil, err
	}
	return &scenarios.RunReport{
		RunID: runID,
		Rows:  extractRows(runID, &env, createdAt),
		Raw:   raw,
	}, nil
}

// getJSON GET + decode, sekalian simpan body mentah untuk arsip snapshot.
func (c *Client) getJSON(ctx context.Context, url string, dst any) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, wireError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", scenarios.ErrUpstreamUnavailable, resp.StatusCode, body)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wireError(err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", scenarios.ErrUpstreamUnavailable, err)
	}
	return raw, nil
}

// wireError petakan error transport ke sentinel domain.
func wireError(err error) error {
	var nerr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", scenarios.ErrUpstreamTimeout, err)
	case errors.As(err, &nerr) && nerr.Timeout():
		return fmt.Errorf("%w: %v", scenarios.ErrUpstreamTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %v", scenarios.ErrUpstreamUnavailable, err)
	}
}
