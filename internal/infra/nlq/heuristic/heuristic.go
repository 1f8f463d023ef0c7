package heuristic

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/bryanwahyu/scenario-search/internal/domain/scenarios"
)

// Interpreter versi lokal tanpa LLM: pattern matching frasa waktu + status.
// Query yang tidak dikenali tetap valid, jatuh ke "run terbaru" tanpa window,
// jadi interpreter ini tidak pernah menolak query.
type Interpreter struct {
	timeRules   []timeRule
	statusRules []statusRule
}

type timeRule struct {
	re      *regexp.Regexp
	resolve func(now time.Time, m []string) (time.Time, time.Time)
}

type statusRule struct {
	re     *regexp.Regexp
	status scenarios.RunStatus
}

func New() *Interpreter {
	return &Interpreter{
		// urutan penting: rule pertama yang match menang
		timeRules: []timeRule{
			{regexp.MustCompile(`(?i)\btoday\b`), todayRange},
			{regexp.MustCompile(`(?i)\byesterday\b`), yesterdayRange},
			{regexp.MustCompile(`(?i)\blast\s+week\b`), lastWeekRange},
			{regexp.MustCompile(`(?i)\blast\s+month\b`), lastMonthRange},
			{regexp.MustCompile(`(?i)\blast\s+24\s+hours\b`), last24HoursRange},
			{regexp.MustCompile(`(?i)from\s+([A-Za-z]+\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?)\s+to\s+([A-Za-z]+\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?)`), explicitRange},
		},
		statusRules: []statusRule{
			{regexp.MustCompile(`(?i)\bpassed\b`), scenarios.StatusPassed},
			{regexp.MustCompile(`(?i)\bfailed\b`), scenarios.StatusFailed},
		},
	}
}

// Interpret implementasi nlq.Interpreter. Tidak pernah return error.
func (i *Interpreter) Interpret(_ context.Context, query string, now time.Time) (scenarios.Filter, error) {
	now = now.UTC()

	var f scenarios.Filter
	for _, r := range i.timeRules {
		if m := r.re.FindStringSubmatch(query); m != nil {
			f.From, f.To = r.resolve(now, m)
			break
		}
	}
	for _, r := range i.statusRules {
		if r.re.MatchString(query) {
			f.Status = r.status
			break
		}
	}
	return f, nil
}

func todayRange(now time.Time, _ []string) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return start, now
}

func yesterdayRange(now time.Time, _ []string) (time.Time, time.Time) {
	y := now.AddDate(0, 0, -1)
	start := time.Date(y.Year(), y.Month(), y.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(y.Year(), y.Month(), y.Day(), 23, 59, 59, 0, time.UTC)
	return start, end
}

// lastWeekRange = 7 hari penuh sebelum hari ini
func lastWeekRange(now time.Time, _ []string) (time.Time, time.Time) {
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return todayStart.AddDate(0, 0, -7), todayStart.Add(-time.Second)
}

// lastMonthRange = bulan kalender sebelumnya
func lastMonthRange(now time.Time, _ []string) (time.Time, time.Time) {
	firstOfThisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := firstOfThisMonth.AddDate(0, -1, 0)
	end := firstOfThisMonth.Add(-time.Second)
	return start, end
}

func last24HoursRange(now time.Time, _ []string) (time.Time, time.Time) {
	return now.Add(-24 * time.Hour), now
}

// explicitRange parse "from April 1 to April 10". Tanggal yang gagal diparse
// dibuang diam-diam, query jatuh ke tanpa window.
func explicitRange(now time.Time, m []string) (time.Time, time.Time) {
	start, okStart := parseLooseDate(m[1], now)
	end, okEnd := parseLooseDate(m[2], now)
	if !okStart || !okEnd {
		return time.Time{}, time.Time{}
	}
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	end = time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, time.UTC)
	return start, end
}

var ordinalRe = regexp.MustCompile(`(\d{1,2})(?:st|nd|rd|th)\b`)

var looseDateLayouts = []string{
	"January 2 2006",
	"Jan 2 2006",
	"January 2",
	"Jan 2",
}

// parseLooseDate terima "April 1", "April 1st", "April 1, 2025" dsb.
// Tanpa tahun → pakai tahun berjalan.
func parseLooseDate(s string, now time.Time) (time.Time, bool) {
	s = ordinalRe.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.Join(strings.Fields(s), " ")

	for _, layout := range looseDateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() == 0 {
			t = time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
		return t, true
	}
	return time.Time{}, false
}
