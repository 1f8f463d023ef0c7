package nlq

import (
	"context"
	"time"

	"github.com/bryanwahyu/scenario-search/internal/domain/scenarios"
)

// Interpreter menerjemahkan query natural-language jadi Filter terstruktur.
// now dioper supaya frasa relatif ("yesterday", "last week") resolve
// konsisten terhadap jam server, bukan jam provider.
type Interpreter interface {
	Interpret(ctx context.Context, query string, now time.Time) (scenarios.Filter, error)
}
