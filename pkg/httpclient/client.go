// Package httpclient builds the *http.Client used for every upstream tool call.
package httpclient

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/oasbridge/bridge/internal/buildinfo"
)

type Opt func(*options)

type options struct {
	header http.Header
}

func NewHTTPClient(opts ...Opt) *http.Client {
	o := &options{header: make(http.Header)}
	for _, opt := range opts {
		opt(o)
	}

	o.header.Set("User-Agent", fmt.Sprintf("oasbridge/%s (%s; %s)", buildinfo.Version, runtime.GOOS, runtime.GOARCH))

	return &http.Client{
		Transport: &headerTransport{
			header: o.header,
			rt:     http.DefaultTransport,
		},
	}
}

// WithHeader sets a header added to every request made through the client.
// A header of the same name already set on the request (such as the
// per-call auth headers the synthesiser sets) takes precedence.
func WithHeader(key, value string) Opt {
	return func(o *options) {
		o.header.Set(key, value)
	}
}

type headerTransport struct {
	header http.Header
	rt     http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r2 := req.Clone(req.Context())
	for k, vs := range t.header {
		if _, ok := r2.Header[k]; !ok {
			r2.Header[k] = vs
		}
	}
	return t.rt.RoundTrip(r2)
}
