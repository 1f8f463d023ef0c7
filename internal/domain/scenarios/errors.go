package scenarios

import "errors"

// ErrUpstreamUnavailable indicates the refresh source rejected the pull
// (unreachable, bad credentials, non-200 response).
var ErrUpstreamUnavailable = errors.New("upstream source unavailable")

// ErrUpstreamTimeout indicates an upstream call exceeded its deadline.
var ErrUpstreamTimeout = errors.New("upstream call timed out")

// ErrRefreshFailed marks any error raised while replacing the dataset,
// so handlers can tell a failed refresh apart from a failed read.
var ErrRefreshFailed = errors.New("dataset refresh failed")
