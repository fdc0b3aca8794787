// Package mcpserver exposes the comparison engine to agents as MCP tools.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/HerbHall/distrocompare/internal/catalog"
	"github.com/HerbHall/distrocompare/internal/version"
)

// DefaultLimit caps rank_distros results when the caller sets no limit.
const DefaultLimit = 10

// AttributeOutput describes one filterable attribute.
type AttributeOutput struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Group   string   `json:"group"`
	Domain  string   `json:"domain"`
	Min     float64  `json:"min,omitempty"`
	Max     float64  `json:"max,omitempty"`
	Options []string `json:"options,omitempty"`
	Help    string   `json:"help,omitempty"`
}

// ListAttributesInput filters list_attributes.
type ListAttributesInput struct {
	Group string `json:"group,omitempty" jsonschema:"only list attributes of this display group"`
}

// ListAttributesOutput is the list_attributes result.
type ListAttributesOutput struct {
	Attributes []AttributeOutput `json:"attributes"`
}

// AttributeInput configures one attribute for rank_distros.
type AttributeInput struct {
	Attribute string    `json:"attribute" jsonschema:"attribute name as returned by list_attributes"`
	Priority  string    `json:"priority,omitempty" jsonschema:"non-negotiable, important, nice-to-have, dont-care or not-important"`
	Bool      *bool     `json:"bool,omitempty" jsonschema:"required value for yes/no attributes"`
	Range     []float64 `json:"range,omitempty" jsonschema:"[min, max] for numeric and scale attributes"`
	Values    []string  `json:"values,omitempty" jsonschema:"accepted options for option attributes"`
}

// RankInput is the rank_distros request.
type RankInput struct {
	Attributes    []AttributeInput `json:"attributes,omitempty"`
	NonNegotiable *bool            `json:"non_negotiable,omitempty" jsonschema:"enforce non-negotiable attributes (default true)"`
	Important     *bool            `json:"important,omitempty" jsonschema:"enforce important attributes (default false)"`
	NiceToHave    *bool            `json:"nice_to_have,omitempty" jsonschema:"enforce nice-to-have attributes (default false)"`
	SortKey       string           `json:"sort_key,omitempty" jsonschema:"overall, nonNegotiable, important, niceToHave, recommendationScore or an attribute name"`
	Eliminated    []string         `json:"eliminated,omitempty" jsonschema:"distribution names to exclude"`
	Limit         int              `json:"limit,omitempty" jsonschema:"maximum results, default 10"`
}

// RankedDistro is one rank_distros result row.
type RankedDistro struct {
	Name                string         `json:"name"`
	Scores              catalog.Scores `json:"scores"`
	RecommendationScore float64        `json:"recommendation_score"`
}

// RankOutput is the rank_distros result.
type RankOutput struct {
	Results  []RankedDistro `json:"results"`
	Filtered int            `json:"filtered"`
	Total    int            `json:"total"`
	SortKey  string         `json:"sort_key"`
}

// DescribeInput is the describe_distro request.
type DescribeInput struct {
	Name string `json:"name" jsonschema:"distribution name"`
}

// DescribeOutput is the describe_distro result.
type DescribeOutput struct {
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes"`
}

// Server serves the engine over MCP.
type Server struct {
	engine *catalog.Engine
	logger *zap.Logger
	mcp    *mcp.Server
}

// New creates the MCP server and registers its tools.
func New(engine *catalog.Engine, logger *zap.Logger) *Server {
	s := &Server{
		engine: engine,
		logger: logger.Named("mcp"),
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    "distrocompare",
			Version: version.Short(),
		}, nil),
	}
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_attributes",
		Description: "List the attributes distributions can be filtered and sorted by, with their groups, value domains and options.",
	}, s.listAttributes)
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "rank_distros",
		Description: "Filter, score and sort Linux distributions by attribute priorities and selections.",
	}, s.rankDistros)
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "describe_distro",
		Description: "Return every attribute of one distribution.",
	}, s.describeDistro)
	return s
}

// Run serves over stdin and stdout until ctx is done or the client leaves.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// MCP returns the underlying server for other transports.
func (s *Server) MCP() *mcp.Server { return s.mcp }

func (s *Server) listAttributes(_ context.Context, _ *mcp.CallToolRequest, in ListAttributesInput) (*mcp.CallToolResult, ListAttributesOutput, error) {
	out := ListAttributesOutput{Attributes: []AttributeOutput{}}
	for _, a := range s.engine.Attributes() {
		if in.Group != "" && in.Group != a.Group {
			continue
		}
		out.Attributes = append(out.Attributes, AttributeOutput{
			Name:    a.Name,
			Label:   a.Label,
			Group:   a.Group,
			Domain:  string(a.Domain),
			Min:     a.Min,
			Max:     a.Max,
			Options: a.Options,
			Help:    a.Help,
		})
	}
	return nil, out, nil
}

func (s *Server) rankDistros(_ context.Context, _ *mcp.CallToolRequest, in RankInput) (*mcp.CallToolResult, RankOutput, error) {
	state, err := s.stateFor(in)
	if err != nil {
		return nil, RankOutput{}, err
	}
	if err := s.engine.Validate(state); err != nil {
		return nil, RankOutput{}, err
	}

	view := s.engine.Evaluate(state)
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	out := RankOutput{
		Results:  make([]RankedDistro, 0, min(limit, len(view.Entries))),
		Filtered: view.Filtered,
		Total:    view.Total,
		SortKey:  view.SortKey,
	}
	for _, e := range view.Entries {
		if len(out.Results) == limit {
			break
		}
		out.Results = append(out.Results, RankedDistro{
			Name:                e.Record.Name,
			Scores:              e.Scores,
			RecommendationScore: e.RecommendationScore,
		})
	}
	s.logger.Debug("rank_distros",
		zap.Int("attributes", len(in.Attributes)),
		zap.Int("filtered", view.Filtered),
	)
	return nil, out, nil
}

func (s *Server) describeDistro(_ context.Context, _ *mcp.CallToolRequest, in DescribeInput) (*mcp.CallToolResult, DescribeOutput, error) {
	rec, err := s.engine.Record(in.Name)
	if err != nil {
		return nil, DescribeOutput{}, err
	}
	out := DescribeOutput{Name: rec.Name, Attributes: make(map[string]string, len(rec.Attributes))}
	for _, k := range rec.Keys() {
		out.Attributes[k] = rec.Get(k).String()
	}
	return nil, out, nil
}

// stateFor builds a filter state from tool input.
func (s *Server) stateFor(in RankInput) (*catalog.FilterState, error) {
	state := catalog.NewFilterState()
	t := state.Toggles
	if in.NonNegotiable != nil {
		t.NonNegotiable = *in.NonNegotiable
	}
	if in.Important != nil {
		t.Important = *in.Important
	}
	if in.NiceToHave != nil {
		t.NiceToHave = *in.NiceToHave
	}
	state.SetToggles(t)
	state.SetSortKey(in.SortKey)
	for _, name := range in.Eliminated {
		state.Eliminate(name)
	}

	for _, a := range in.Attributes {
		if a.Priority != "" {
			p, err := catalog.ParsePriority(a.Priority)
			if err != nil {
				return nil, fmt.Errorf("attribute %s: %w", a.Attribute, err)
			}
			state.SetPriority(a.Attribute, p)
		}
		sel, ok, err := selectionFor(a)
		if err != nil {
			return nil, err
		}
		if ok {
			state.SetSelection(a.Attribute, sel)
		}
	}
	return state, nil
}

func selectionFor(a AttributeInput) (catalog.Selection, bool, error) {
	n := 0
	if a.Bool != nil {
		n++
	}
	if a.Range != nil {
		n++
	}
	if a.Values != nil {
		n++
	}
	switch {
	case n == 0:
		return catalog.Selection{}, false, nil
	case n > 1:
		return catalog.Selection{}, false, fmt.Errorf("attribute %s: set only one of bool, range and values", a.Attribute)
	case a.Bool != nil:
		return catalog.BoolSelection(*a.Bool), true, nil
	case a.Range != nil:
		if len(a.Range) != 2 {
			return catalog.Selection{}, false, fmt.Errorf("attribute %s: range needs exactly two numbers", a.Attribute)
		}
		return catalog.RangeSelection(a.Range[0], a.Range[1]), true, nil
	default:
		return catalog.SetSelection(a.Values...), true, nil
	}
}
