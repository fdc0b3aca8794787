package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HerbHall/distrocompare/internal/version"
)

// ErrNotFound is returned when a source has no document with the name.
var ErrNotFound = errors.New("document not found")

// maxDocumentBytes bounds a single fetched document.
const maxDocumentBytes = 8 << 20

// Source fetches catalog documents by relative name.
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
	String() string
}

// FileSource reads documents below a directory.
type FileSource struct {
	dir string
}

// NewFileSource returns a source rooted at dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

func (s *FileSource) String() string { return "file://" + s.dir }

// Fetch reads name below the root. Names cannot escape the root.
func (s *FileSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := filepath.Join(s.dir, filepath.FromSlash(filepath.Clean("/"+name)))
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// HTTPSource fetches documents relative to a base URL, optionally through
// a CORS relay.
type HTTPSource struct {
	httpClient *http.Client
	baseURL    string
	proxyURL   string
	userAgent  string
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if d > 0 {
			s.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) { s.httpClient = c }
}

// WithProxy routes requests through a relay that takes the target URL as
// its path, as served by the proxy subcommand.
func WithProxy(proxyURL string) HTTPOption {
	return func(s *HTTPSource) { s.proxyURL = strings.TrimRight(proxyURL, "/") }
}

// NewHTTPSource returns a source fetching from baseURL.
func NewHTTPSource(baseURL string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  version.UserAgent(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HTTPSource) String() string { return s.baseURL }

// Fetch GETs baseURL/name.
func (s *HTTPSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	target := s.baseURL + "/" + strings.TrimLeft(name, "/")
	if s.proxyURL != "" {
		target = s.proxyURL + "/" + target
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s: unexpected status: %d", name, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// ParseSource builds a source from a location: an http(s) URL, a file://
// URL or a bare directory path.
func ParseSource(location string, opts ...HTTPOption) (Source, error) {
	if location == "" {
		return nil, errors.New("empty source location")
	}
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Bare paths, including Windows drive letters.
		return NewFileSource(location), nil
	}
	switch u.Scheme {
	case "file":
		return NewFileSource(u.Host + u.Path), nil
	case "http", "https":
		return NewHTTPSource(location, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported source scheme %q", u.Scheme)
	}
}
