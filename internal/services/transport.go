package services

import (
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// pacedTransport waits on limiter before every request.
type pacedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *pacedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// newLimiter returns nil when requestsPerSecond disables pacing.
func newLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// refreshingTokenSource reports every token whose access token differs from the last one seen.
type refreshingTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)

	mu   sync.Mutex
	last string
}

func newRefreshingTokenSource(src oauth2.TokenSource, initial *oauth2.Token, callback func(*oauth2.Token)) *refreshingTokenSource {
	ts := &refreshingTokenSource{source: src, callback: callback}
	if initial != nil {
		ts.last = initial.AccessToken
	}
	return ts
}

func (s *refreshingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.source.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	changed := token.AccessToken != s.last
	s.last = token.AccessToken
	s.mu.Unlock()

	if changed && s.callback != nil {
		s.callback(token)
	}
	return token, nil
}
