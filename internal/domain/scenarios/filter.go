package scenarios

import "time"

// DefaultLimit dipakai kalau query tidak menyebut rentang waktu:
// tampilkan 20 run terbaru saja.
const DefaultLimit = 20

// MaxLimit batas atas limit eksplisit, interpreter bisa saja ngasih angka liar.
const MaxLimit = 100

// Filter predicate terstruktur hasil terjemahan query natural-language.
// Dikonsumsi sekali per request, tidak dipersist.
type Filter struct {
	Status RunStatus // kosong = semua status
	From   time.Time // zero = tanpa batas bawah
	To     time.Time // zero = tanpa batas atas
	Match  []string  // free-text match ke scenario/process/flow name
	Limit  int       // 0 = unbounded
}

// HasWindow true kalau filter punya batas waktu
func (f Filter) HasWindow() bool { return !f.From.IsZero() || !f.To.IsZero() }

// Normalized menerapkan invariant limit: tanpa window dan tanpa limit
// eksplisit, hasil dibatasi DefaultLimit. Limit di atas MaxLimit dipotong.
func (f Filter) Normalized() Filter {
	if !f.HasWindow() && f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	return f
}
