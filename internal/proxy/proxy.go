// Package proxy implements a CORS relay: a request for /{absolute-url} is
// forwarded to that URL and answered with permissive CORS headers, so a
// browser can read catalog documents from hosts that do not send them.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/distrocompare/internal/server"
)

// ErrBadTarget is returned for a path that does not name an http(s) URL.
var ErrBadTarget = errors.New("path does not name an absolute http(s) URL")

// Request headers never forwarded upstream.
var strippedRequestHeaders = []string{"Cookie", "Cookie2"}

// Response headers never returned to the client.
var strippedResponseHeaders = []string{"Set-Cookie", "Set-Cookie2"}

// Relay forwards requests to the URL named by their path.
type Relay struct {
	proxy   *httputil.ReverseProxy
	limiter *Limiter
	logger  *zap.Logger
}

// Option configures a Relay.
type Option func(*Relay)

// WithLimiter sets the per-client rate limiter.
func WithLimiter(l *Limiter) Option {
	return func(r *Relay) { r.limiter = l }
}

// WithTransport replaces the upstream transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(r *Relay) { r.proxy.Transport = rt }
}

// New creates a relay.
func New(logger *zap.Logger, opts ...Option) *Relay {
	rl := &Relay{logger: logger.Named("proxy")}
	rl.proxy = &httputil.ReverseProxy{
		Rewrite:        rl.rewrite,
		ModifyResponse: modifyResponse,
		ErrorHandler:   rl.upstreamError,
	}
	for _, o := range opts {
		o(rl)
	}
	return rl
}

// Middleware relays every request whose path names an absolute URL and
// hands the rest to next. It must sit in front of the mux, which would
// otherwise redirect the double slash in the target URL.
func (rl *Relay) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isRelayPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		r.Pattern = "relay"
		rl.ServeHTTP(w, r)
	})
}

// ServeHTTP implements http.Handler.
func (rl *Relay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORS(w.Header(), r)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	target, err := Target(r.URL)
	if err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	if rl.limiter != nil && !rl.limiter.Allow(r) {
		w.Header().Set("Retry-After", "1")
		server.RateLimited(w, "too many relay requests", r.URL.Path)
		return
	}

	ctx := context.WithValue(r.Context(), targetKey{}, target)
	rl.proxy.ServeHTTP(w, r.WithContext(ctx))
}

// Run sweeps idle rate-limit buckets until ctx is cancelled.
func (rl *Relay) Run(ctx context.Context) {
	if rl.limiter == nil {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.limiter.Sweep(); n > 0 {
				rl.logger.Debug("rate limit buckets expired", zap.Int("count", n))
			}
		}
	}
}

type targetKey struct{}

func (rl *Relay) rewrite(pr *httputil.ProxyRequest) {
	target, _ := pr.In.Context().Value(targetKey{}).(*url.URL)
	pr.SetURL(target)
	// SetURL joins paths; the target is already complete.
	pr.Out.URL.Path = target.Path
	pr.Out.URL.RawPath = target.RawPath
	pr.Out.URL.RawQuery = target.RawQuery
	pr.SetXForwarded()
	for _, h := range strippedRequestHeaders {
		pr.Out.Header.Del(h)
	}
	rl.logger.Debug("relaying request",
		zap.String("method", pr.Out.Method),
		zap.String("target", target.Redacted()),
		zap.String("request_id", server.GetRequestID(pr.In.Context())),
	)
}

func modifyResponse(resp *http.Response) error {
	for _, h := range strippedResponseHeaders {
		resp.Header.Del(h)
	}
	// Upstream CORS headers are replaced with the relay's own, which
	// ServeHTTP has already set on the response writer.
	for k := range resp.Header {
		if strings.HasPrefix(k, "Access-Control-") {
			resp.Header.Del(k)
		}
	}
	if resp.Request != nil {
		resp.Header.Set("X-Final-Url", resp.Request.URL.String())
	}
	exposeHeaders(resp.Header)
	return nil
}

func (rl *Relay) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	rl.logger.Warn("relay upstream failed", zap.String("path", r.URL.Path), zap.Error(err))
	server.BadGateway(w, "upstream request failed", r.URL.Path)
}

// Target extracts the absolute URL named by a relay request path. A single
// slash after the scheme, as left by path cleaning, is accepted.
func Target(u *url.URL) (*url.URL, error) {
	raw := strings.TrimPrefix(u.Path, "/")
	for _, scheme := range []string{"https:", "http:"} {
		if len(raw) < len(scheme) || !strings.EqualFold(raw[:len(scheme)], scheme) {
			continue
		}
		rest := strings.TrimLeft(raw[len(scheme):], "/")
		raw = strings.ToLower(scheme) + "//" + rest
		break
	}
	target, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTarget, err)
	}
	if (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return nil, ErrBadTarget
	}
	target.RawQuery = u.RawQuery
	return target, nil
}

func isRelayPath(p string) bool {
	p = strings.ToLower(strings.TrimPrefix(p, "/"))
	return strings.HasPrefix(p, "http:") || strings.HasPrefix(p, "https:")
}

// setCORS allows any origin, echoing preflight requests.
func setCORS(h http.Header, r *http.Request) {
	h.Set("Access-Control-Allow-Origin", "*")
	if r.Method != http.MethodOptions {
		return
	}
	if m := r.Header.Get("Access-Control-Request-Method"); m != "" {
		h.Set("Access-Control-Allow-Methods", m)
	} else {
		h.Set("Access-Control-Allow-Methods", "GET, HEAD, POST, PUT, PATCH, DELETE, OPTIONS")
	}
	if hs := r.Header.Get("Access-Control-Request-Headers"); hs != "" {
		h.Set("Access-Control-Allow-Headers", hs)
	}
	h.Set("Access-Control-Max-Age", "86400")
}

func exposeHeaders(h http.Header) {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	h.Set("Access-Control-Expose-Headers", strings.Join(keys, ","))
}
