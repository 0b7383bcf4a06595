package fetch

import (
	"fmt"
	"net/http"

	"github.com/heartmarshall/eecc-crawler/internal/domain"
)

// NetworkError reports a failed page fetch: a transport failure, a timeout,
// or a non-2xx response. StatusCode is zero when no response was received.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is makes every NetworkError match domain.ErrNetwork.
func (e *NetworkError) Is(target error) bool { return target == domain.ErrNetwork }

// Retryable reports whether another attempt may succeed: transport errors,
// 5xx and 429 are retryable, other statuses are not.
func (e *NetworkError) Retryable() bool {
	if e.StatusCode == 0 {
		return true
	}
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}
