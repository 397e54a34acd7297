package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/websignapp/websign-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search",
		Description: "Full-text search across the current user's screens, content items, and playlists",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearch)
}

// === DTOs ===

// SearchInput contains parameters for searching.
type SearchInput struct {
	Authorization string `header:"Authorization"`
	Query         string `query:"q" validate:"required,min=1,max=200" doc:"Search query"`
	Types         string `query:"types" validate:"omitempty,max=100" doc:"Comma-separated types to search (screen,content,playlist). Omit for all."`
	ContentTypes  string `query:"content_types" validate:"omitempty,max=100" doc:"Comma-separated content types to filter by (text,image,video)"`
	MinDuration   int    `query:"min_duration" validate:"omitempty,gte=0" doc:"Minimum duration in seconds"`
	MaxDuration   int    `query:"max_duration" validate:"omitempty,gte=0" doc:"Maximum duration in seconds"`
	Limit         int    `query:"limit" validate:"omitempty,gte=1,lte=100" doc:"Max results (default 20)"`
	Offset        int    `query:"offset" validate:"omitempty,gte=0" doc:"Pagination offset (default 0)"`
	SortBy        string `query:"sort" validate:"omitempty,oneof=relevance name recent duration" doc:"Sort order (default relevance)"`
	Facets        bool   `query:"facets" doc:"Include facet counts in the response"`
}

// SearchHitResult contains a single search result.
type SearchHitResult struct {
	ID          string            `json:"id" doc:"Entity ID"`
	Type        string            `json:"type" doc:"Type: screen, content, or playlist"`
	Score       float64           `json:"score" doc:"Search relevance score"`
	Name        string            `json:"name" doc:"Display name"`
	ContentType string            `json:"content_type,omitempty" doc:"Content type (for content items)"`
	Location    string            `json:"location,omitempty" doc:"Location (for screens)"`
	Duration    int               `json:"duration,omitempty" doc:"Display seconds (for content items)"`
	ItemCount   int               `json:"item_count,omitempty" doc:"Number of items (for playlists)"`
	Highlights  map[string]string `json:"highlights,omitempty" doc:"Highlighted matches"`
}

// FacetCountResult represents a facet value and its count.
type FacetCountResult struct {
	Value string `json:"value" doc:"Facet value"`
	Count int    `json:"count" doc:"Number of matches"`
}

// SearchFacetsResult contains facet counts for filtering.
type SearchFacetsResult struct {
	Types        []FacetCountResult `json:"types,omitempty" doc:"Type facets"`
	ContentTypes []FacetCountResult `json:"content_types,omitempty" doc:"Content type facets"`
}

// SearchResponse contains search results.
type SearchResponse struct {
	Query  string              `json:"query" doc:"Original search query"`
	Total  uint64              `json:"total" doc:"Total matches"`
	TookMs int64               `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []SearchHitResult   `json:"hits" doc:"Search results"`
	Facets *SearchFacetsResult `json:"facets,omitempty" doc:"Facet counts for filtering"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	params := search.DefaultSearchParams()
	params.Query = input.Query
	params.MinDuration = input.MinDuration
	params.MaxDuration = input.MaxDuration
	params.IncludeFacets = input.Facets

	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	if input.Offset > 0 {
		params.Offset = input.Offset
	}
	if input.SortBy != "" {
		params.SortBy = input.SortBy
	}
	if input.Types != "" {
		for t := range strings.SplitSeq(input.Types, ",") {
			if t = strings.TrimSpace(t); t != "" {
				params.Types = append(params.Types, t)
			}
		}
	}
	if input.ContentTypes != "" {
		for t := range strings.SplitSeq(input.ContentTypes, ",") {
			if t = strings.TrimSpace(t); t != "" {
				params.ContentTypes = append(params.ContentTypes, t)
			}
		}
	}

	result, err := s.services.Search.Search(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	resp := SearchResponse{
		Query:  result.Query,
		Total:  result.Total,
		TookMs: result.TookMs,
		Hits:   make([]SearchHitResult, 0, len(result.Hits)),
	}
	for _, hit := range result.Hits {
		resp.Hits = append(resp.Hits, SearchHitResult{
			ID:          hit.ID,
			Type:        string(hit.Type),
			Score:       hit.Score,
			Name:        hit.Name,
			ContentType: hit.ContentType,
			Location:    hit.Location,
			Duration:    hit.Duration,
			ItemCount:   hit.ItemCount,
			Highlights:  hit.Highlights,
		})
	}

	if input.Facets {
		facets := &SearchFacetsResult{
			Types:        mapFacetCounts(result.Facets.Types),
			ContentTypes: mapFacetCounts(result.Facets.ContentTypes),
		}
		resp.Facets = facets
	}

	return &SearchOutput{Body: resp}, nil
}

func mapFacetCounts(counts []search.FacetCount) []FacetCountResult {
	if len(counts) == 0 {
		return nil
	}
	out := make([]FacetCountResult, 0, len(counts))
	for _, c := range counts {
		out = append(out, FacetCountResult{Value: c.Value, Count: c.Count})
	}
	return out
}
