package client

import "github.com/pkg/errors"

var (
	// ErrFetchFailed means the request never produced a 2xx response.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrDecodeFailed means a 2xx response body could not be decoded.
	ErrDecodeFailed = errors.New("decode failed")
	// ErrMineTriggerFailed means the backend did not accept a mining request.
	ErrMineTriggerFailed = errors.New("mine trigger failed")
)
