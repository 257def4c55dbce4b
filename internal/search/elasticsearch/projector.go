package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/playforge/gamestore/internal/domain"
	"github.com/playforge/gamestore/internal/search"
	apperrors "github.com/playforge/gamestore/pkg/errors"
)

// Projector is an Elasticsearch-backed implementation of search.Projector.
type Projector struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger
}

var _ search.Projector = (*Projector)(nil)

// esSearchResponse is the structure used to decode Elasticsearch search responses.
type esSearchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source domain.Game `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// esAggResponse is the structure used to decode the popular categories aggregation.
type esAggResponse struct {
	Aggregations struct {
		PopularCategories struct {
			Buckets []struct {
				Key      string `json:"key"`
				DocCount int    `json:"doc_count"`
			} `json:"buckets"`
		} `json:"popular_categories"`
	} `json:"aggregations"`
}

// esErrorResponse is used to decode Elasticsearch error responses.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// searchCap bounds match-all style reads; the catalog is small enough that a
// single page covers it.
const searchCap = 1000

// New creates a new Elasticsearch projector for the given URL and index name.
// It does not touch the index; call BootstrapIndex for that, so a missing
// cluster at construction time does not prevent the service from starting.
func New(esURL, indexName string, logger *slog.Logger) (*Projector, error) {
	if indexName == "" {
		indexName = DefaultIndexName
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: failed to create client: %w", err)
	}

	return &Projector{
		client:    client,
		indexName: indexName,
		logger:    logger,
	}, nil
}

// Ping checks whether the Elasticsearch cluster is reachable.
func (p *Projector) Ping(ctx context.Context) error {
	res, err := p.client.Ping(p.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// BootstrapIndex checks whether the games index exists and creates it with
// the full mapping if not. Idempotent.
func (p *Projector) BootstrapIndex(ctx context.Context) error {
	created, err := p.ensureIndex(ctx)
	if err != nil {
		return err
	}
	if created {
		p.logger.Info("elasticsearch index created", "index", p.indexName)
	} else {
		p.logger.Info("elasticsearch index already exists", "index", p.indexName)
	}
	return nil
}

func (p *Projector) ensureIndex(ctx context.Context) (bool, error) {
	res, err := p.client.Indices.Exists(
		[]string{p.indexName},
		p.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, apperrors.IndexUnavailable(fmt.Errorf("check index exists: %w", err))
	}
	defer func() { _ = res.Body.Close() }()

	// Status 200 means the index exists.
	if res.StatusCode == 200 {
		return false, nil
	}

	res, err = p.client.Indices.Create(
		p.indexName,
		p.client.Indices.Create.WithBody(strings.NewReader(buildIndexMapping())),
		p.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return false, apperrors.IndexUnavailable(fmt.Errorf("create index: %w", err))
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return false, fmt.Errorf("create index: %s", p.decodeError(res.Body, res.Status()))
	}

	return true, nil
}

// Project upserts a game document keyed by its ID, replacing any previous
// version entirely. If the index is missing it is created first, a fallback
// for deployments where bootstrap failed at startup.
func (p *Projector) Project(ctx context.Context, game *domain.Game) error {
	if _, err := p.ensureIndex(ctx); err != nil {
		return fmt.Errorf("elasticsearch project: %w", err)
	}

	data, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("elasticsearch project: marshal game: %w", err)
	}

	res, err := p.client.Index(
		p.indexName,
		bytes.NewReader(data),
		p.client.Index.WithDocumentID(game.ID),
		p.client.Index.WithRefresh("true"),
		p.client.Index.WithContext(ctx),
	)
	if err != nil {
		return apperrors.IndexUnavailable(fmt.Errorf("elasticsearch project: %w", err))
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch project: %s", p.decodeError(res.Body, res.Status()))
	}

	p.logger.Debug("projected game", "id", game.ID, "title", game.Title)
	return nil
}

// Remove deletes a game document by ID. A 404 is ignored; the document may
// never have been projected.
func (p *Projector) Remove(ctx context.Context, id string) error {
	res, err := p.client.Delete(
		p.indexName,
		id,
		p.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return apperrors.IndexUnavailable(fmt.Errorf("elasticsearch remove: %w", err))
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("elasticsearch remove: %s", p.decodeError(res.Body, res.Status()))
	}

	p.logger.Debug("removed game from index", "id", id)
	return nil
}

// SearchAll returns every indexed game.
func (p *Projector) SearchAll(ctx context.Context) ([]domain.Game, error) {
	return p.runSearch(ctx, map[string]any{
		"query": map[string]any{
			"match_all": map[string]any{},
		},
		"size": searchCap,
	})
}

// SearchByTitle returns games whose title fuzzily matches the query, ranked
// by relevance. Bounded auto-fuzziness tolerates small typos.
func (p *Projector) SearchByTitle(ctx context.Context, query string) ([]domain.Game, error) {
	return p.runSearch(ctx, map[string]any{
		"query": map[string]any{
			"match": map[string]any{
				"title": map[string]any{
					"query":     query,
					"fuzziness": "AUTO",
				},
			},
		},
		"size": searchCap,
	})
}

// TopSelling returns up to limit games sorted by sales count descending,
// ties broken by ID for a stable order. limit <= 0 returns an empty slice
// without touching the cluster.
func (p *Projector) TopSelling(ctx context.Context, limit int) ([]domain.Game, error) {
	if limit <= 0 {
		return []domain.Game{}, nil
	}

	return p.runSearch(ctx, map[string]any{
		"query": map[string]any{
			"match_all": map[string]any{},
		},
		"size": limit,
		"sort": []any{
			map[string]any{"sales_count": "desc"},
			map[string]any{"id": "asc"},
		},
	})
}

// MaxSalesCount returns the sales count of the single top-selling game, or
// false when the index holds no games.
func (p *Projector) MaxSalesCount(ctx context.Context) (int, bool, error) {
	games, err := p.TopSelling(ctx, 1)
	if err != nil {
		return 0, false, err
	}
	if len(games) == 0 {
		return 0, false, nil
	}
	return games[0].SalesCount, true, nil
}

// PopularCategories aggregates document counts per category, ordered by count
// descending and truncated to topN buckets.
func (p *Projector) PopularCategories(ctx context.Context, topN int) ([]domain.CategoryCount, error) {
	if topN <= 0 {
		topN = search.DefaultPopularCategories
	}

	body := map[string]any{
		"size": 0,
		"aggs": map[string]any{
			"popular_categories": map[string]any{
				"terms": map[string]any{
					"field": "category",
					"size":  topN,
				},
			},
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch aggregate: marshal query: %w", err)
	}

	res, err := p.client.Search(
		p.client.Search.WithIndex(p.indexName),
		p.client.Search.WithBody(bytes.NewReader(data)),
		p.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, apperrors.IndexUnavailable(fmt.Errorf("elasticsearch aggregate: %w", err))
	}
	defer func() { _ = res.Body.Close() }()

	// A missing index means nothing has been projected yet.
	if res.StatusCode == 404 {
		return []domain.CategoryCount{}, nil
	}

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch aggregate: %s", p.decodeError(res.Body, res.Status()))
	}

	var aggResp esAggResponse
	if err := json.NewDecoder(res.Body).Decode(&aggResp); err != nil {
		return nil, fmt.Errorf("elasticsearch aggregate: decode response: %w", err)
	}

	counts := make([]domain.CategoryCount, 0, len(aggResp.Aggregations.PopularCategories.Buckets))
	for _, bucket := range aggResp.Aggregations.PopularCategories.Buckets {
		counts = append(counts, domain.CategoryCount{
			Category: bucket.Key,
			Count:    bucket.DocCount,
		})
	}

	return counts, nil
}

// RecommendationsFor returns games whose category is in the given set.
func (p *Projector) RecommendationsFor(ctx context.Context, categories []string) ([]domain.Game, error) {
	return p.runSearch(ctx, map[string]any{
		"query": map[string]any{
			"terms": map[string]any{
				"category": categories,
			},
		},
		"size": searchCap,
	})
}

// runSearch executes a search body and decodes the hits. A missing index is
// an empty result, not an error: bootstrap races with early traffic in a
// fresh deployment.
func (p *Projector) runSearch(ctx context.Context, body map[string]any) ([]domain.Game, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}

	res, err := p.client.Search(
		p.client.Search.WithIndex(p.indexName),
		p.client.Search.WithBody(bytes.NewReader(data)),
		p.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, apperrors.IndexUnavailable(fmt.Errorf("elasticsearch search: %w", err))
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == 404 {
		return []domain.Game{}, nil
	}

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search: %s", p.decodeError(res.Body, res.Status()))
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}

	games := make([]domain.Game, 0, len(esResp.Hits.Hits))
	for _, hit := range esResp.Hits.Hits {
		games = append(games, hit.Source)
	}

	return games, nil
}

// decodeError renders an Elasticsearch error body, falling back to the HTTP status.
func (p *Projector) decodeError(body io.Reader, status string) string {
	var errResp esErrorResponse
	if err := json.NewDecoder(body).Decode(&errResp); err == nil && errResp.Error.Type != "" {
		return fmt.Sprintf("%s: %s", errResp.Error.Type, errResp.Error.Reason)
	}
	return "unexpected status " + status
}
