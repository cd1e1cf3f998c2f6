package common

import "errors"

var (
	// ErrUpstreamUnavailable means the RPC provider was unreachable or kept
	// rate-limiting past the retry budget.
	ErrUpstreamUnavailable = errors.New("upstream rpc unavailable")

	// ErrBlockNotFound means the node has no data for the requested height,
	// e.g. beyond the current tip or pruned.
	ErrBlockNotFound = errors.New("block not found")

	// ErrInvalidRange means fromBlock > toBlock. This is a bug in window
	// configuration, never retried.
	ErrInvalidRange = errors.New("invalid block range")

	// ErrTokenNotRecognized means the token registry has no entry for the
	// requested identifier.
	ErrTokenNotRecognized = errors.New("token not recognized")
)
