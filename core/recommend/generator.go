// Package recommend composes the recommendation engine: query generation
// strategies, the orchestrator state flow, and cache writeback.
package recommend

import (
	"context"
	"strings"

	"AutoQFM/model"
)

// QueryGenerator turns a seed track plus session context into a batch of
// free-text search queries. Implementations never return an error; an
// empty batch means "I have nothing", and the orchestrator owns fallback.
type QueryGenerator interface {
	Queries(ctx context.Context, qc model.QueryContext) []string
}

// maxAlgorithmicQueries caps the rule-based batch.
const maxAlgorithmicQueries = 6

// AlgorithmicGenerator is the always-available, zero-latency, zero-cost
// strategy: simple templates over the seed and favorite artists.
type AlgorithmicGenerator struct{}

// NewAlgorithmicGenerator creates the rule-based generator.
func NewAlgorithmicGenerator() *AlgorithmicGenerator {
	return &AlgorithmicGenerator{}
}

// Queries emits up to 6 template queries.
func (g *AlgorithmicGenerator) Queries(_ context.Context, qc model.QueryContext) []string {
	queries := make([]string, 0, maxAlgorithmicQueries)

	seedArtist := strings.TrimSpace(qc.Seed.Artist)
	if seedArtist != "" {
		queries = append(queries,
			seedArtist+" best songs",
			seedArtist+" similar artists")
	}

	favorites := 0
	for _, fav := range qc.FavoriteArtists {
		fav = strings.TrimSpace(fav)
		if fav == "" || strings.EqualFold(fav, seedArtist) {
			continue
		}
		queries = append(queries, fav+" popular songs")
		favorites++
		if favorites == 3 {
			break
		}
	}

	if len(queries) < 4 {
		if title := strings.TrimSpace(qc.Seed.Title); title != "" {
			queries = append(queries, "songs like "+title)
		}
		for _, genre := range qc.Genres {
			if len(queries) >= 4 {
				break
			}
			queries = append(queries, genre+" popular music")
		}
	}

	if len(queries) > maxAlgorithmicQueries {
		queries = queries[:maxAlgorithmicQueries]
	}
	return queries
}
