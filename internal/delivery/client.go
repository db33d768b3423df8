package delivery

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// newHTTPClient builds the resty client a webhook sender uses (the
// Telegram sender goes through go-telegram/bot instead): 5 attempts
// total, 1s initial backoff doubling
// each attempt, retried only for 5xx responses or 429; any other 4xx
// is terminal.
func newHTTPClient(timeout time.Duration) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetRetryCount(4). // 1 initial attempt + 4 retries = 5 attempts
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(16 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			code := resp.StatusCode()
			return code == http.StatusTooManyRequests || code >= 500
		})
}
