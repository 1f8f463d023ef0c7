package nlq

import "errors"

// ErrUnintelligible indicates the interpretation service could not derive a
// structured filter from the query text.
var ErrUnintelligible = errors.New("query could not be interpreted")

// ErrQuotaExceeded indicates the interpretation provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("interpreter quota exceeded")

// ErrUnavailable indicates the interpretation service could not be reached at all.
var ErrUnavailable = errors.New("interpretation service unavailable")
