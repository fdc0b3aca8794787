// Package docs serves the user guide, rendered from Markdown to HTML.
package docs

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"go.uber.org/zap"

	"github.com/HerbHall/distrocompare/internal/loader"
)

//go:embed user_guide.md
var embeddedGuide []byte

// FallbackMessage replaces the guide when it cannot be loaded.
const FallbackMessage = "Failed to load user guide. Please try again later."

// Page is a rendered guide.
type Page struct {
	Markdown string    `json:"markdown"`
	HTML     string    `json:"html"`
	Fallback bool      `json:"fallback"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Guide loads and renders the user guide once and caches the result. A
// failed load is not cached, so the next request retries.
type Guide struct {
	source loader.Source
	name   string
	md     goldmark.Markdown
	logger *zap.Logger

	mu   sync.Mutex
	page *Page
}

// NewGuide returns a guide read from name in source. A nil source serves
// the embedded guide.
func NewGuide(source loader.Source, name string, logger *zap.Logger) *Guide {
	return &Guide{
		source: source,
		name:   name,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
		logger: logger.Named("docs"),
	}
}

// Page returns the rendered guide, or a fallback page if it cannot be
// loaded. It never fails.
func (g *Guide) Page(ctx context.Context) Page {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.page != nil {
		return *g.page
	}

	page, err := g.load(ctx)
	if err != nil {
		g.logger.Warn("user guide unavailable", zap.String("name", g.name), zap.Error(err))
		return g.fallback()
	}
	g.page = &page
	return page
}

// Invalidate drops the cached page.
func (g *Guide) Invalidate() {
	g.mu.Lock()
	g.page = nil
	g.mu.Unlock()
}

func (g *Guide) load(ctx context.Context) (Page, error) {
	src := embeddedGuide
	if g.source != nil {
		data, err := g.source.Fetch(ctx, g.name)
		if err != nil {
			return Page{}, err
		}
		src = data
	}
	html, err := g.render(src)
	if err != nil {
		return Page{}, err
	}
	return Page{Markdown: string(src), HTML: html, LoadedAt: time.Now().UTC()}, nil
}

func (g *Guide) render(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := g.md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

func (g *Guide) fallback() Page {
	html, err := g.render([]byte(FallbackMessage))
	if err != nil {
		html = "<p>" + FallbackMessage + "</p>\n"
	}
	return Page{Markdown: FallbackMessage, HTML: html, Fallback: true, LoadedAt: time.Now().UTC()}
}

// Handler serves the guide.
type Handler struct {
	guide *Guide
}

// NewHandler creates a docs handler.
func NewHandler(guide *Guide) *Handler {
	return &Handler{guide: guide}
}

// RegisterRoutes implements server.RouteRegistrar.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/docs/user-guide", h.handleUserGuide)
}

// handleUserGuide answers with HTML by default, raw Markdown for
// ?format=markdown and the full page for ?format=json.
func (h *Handler) handleUserGuide(w http.ResponseWriter, r *http.Request) {
	page := h.guide.Page(r.Context())
	switch r.URL.Query().Get("format") {
	case "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(page.Markdown))
	case "json":
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(page)
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page.HTML))
	}
}
