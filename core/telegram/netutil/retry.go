// Package netutil holds HTTP plumbing shared by the Telegram client and the hotels API client.
package netutil

import (
	"errors"
	"net"
	"net/url"
)

// ShouldRetry reports whether a transport error looks transient
// (dial failures and timeouts).
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil && urlErr.Err != err {
		return ShouldRetry(urlErr.Err)
	}
	return false
}
