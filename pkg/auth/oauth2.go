package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"github.com/oasbridge/bridge/pkg/concurrent"
)

// tokenCache is a Broker's OAuth2 token cache, keyed by (token endpoint
// URL, client id). Each service's Broker builds its own, so services do not
// share cached tokens. Refresh is single-flighted per key so
// concurrent callers sharing a cold cache entry issue exactly one token
// request (§6's "single inflight refresh per key via single-flight").
type tokenCache struct {
	sources *concurrent.Map[string, oauth2.TokenSource]
	group   singleflight.Group
}

func newTokenCache() *tokenCache {
	return &tokenCache{sources: concurrent.NewMap[string, oauth2.TokenSource]()}
}

func cacheKey(tokenURL, clientID string) string {
	return tokenURL + "|" + clientID
}

func (c *tokenCache) token(ctx context.Context, tokenURL, clientID, clientSecret string) (string, error) {
	key := cacheKey(tokenURL, clientID)

	src, ok := c.sources.Load(key)
	if !ok {
		cfg := &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
		}
		// ReuseTokenSource caches the token itself and only calls back into
		// the underlying source (a fresh token POST) once it expires.
		// LoadOrStore closes the race between concurrent cold-cache callers:
		// exactly one constructed source wins and is shared from here on.
		src, _ = c.sources.LoadOrStore(key, oauth2.ReuseTokenSource(nil, cfg.TokenSource(ctx)))
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		t, err := src.Token()
		if err != nil {
			return nil, fmt.Errorf("fetch oauth2 token: %w", err)
		}
		return t.AccessToken, nil
	})
	if err != nil {
		return "", err
	}

	return result.(string), nil
}
