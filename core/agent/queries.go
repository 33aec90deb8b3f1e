package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"AutoQFM/logger"
	"AutoQFM/model"
)

// maxAIQueries caps how many queries are accepted from one AI response.
const maxAIQueries = 8

// mixRatios maps diversity level to a favorites/new split for the prompt.
var mixRatios = map[model.DiversityLevel]string{
	model.DiversityLow:    "70% from the listener's favorite artists, 30% new discoveries",
	model.DiversityMedium: "50% from the listener's favorite artists, 50% new discoveries",
	model.DiversityHigh:   "30% from the listener's favorite artists, 70% new discoveries",
}

// QueryGenerator asks the AI gateway for search queries. On any gateway or
// parse failure it returns an empty list; the orchestrator owns fallback,
// so nothing here is thrown upward as a control-flow signal.
type QueryGenerator struct {
	gateway *Gateway
}

// NewQueryGenerator creates an AI-backed query generator.
func NewQueryGenerator(gateway *Gateway) *QueryGenerator {
	return &QueryGenerator{gateway: gateway}
}

// Queries generates up to 8 search queries for the seed track.
func (q *QueryGenerator) Queries(ctx context.Context, qc model.QueryContext) []string {
	prompt := BuildPrompt(qc)

	raw, err := q.gateway.Generate(ctx, prompt)
	if err != nil {
		logger.Warn("ai query generation failed",
			logger.String("seed", qc.Seed.Title),
			logger.ErrorField(err))
		return nil
	}

	queries, err := ParseQueries(raw)
	if err != nil {
		logger.Warn("ai response was not a query list",
			logger.String("seed", qc.Seed.Title),
			logger.ErrorField(err))
		return nil
	}

	logger.Info("ai queries generated",
		logger.String("seed", qc.Seed.Title),
		logger.Int("count", len(queries)))
	return queries
}

// BuildPrompt embeds the seed track, detected genres, favorite artists and
// diversity level into a single natural-language prompt.
func BuildPrompt(qc model.QueryContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a music curator. The listener is currently playing %q by %q.\n",
		qc.Seed.Title, qc.Seed.Artist)

	if len(qc.Genres) > 0 {
		fmt.Fprintf(&b, "Detected genres this session: %s.\n", strings.Join(qc.Genres, ", "))
	}
	if len(qc.FavoriteArtists) > 0 {
		fmt.Fprintf(&b, "Favorite artists this session: %s.\n", strings.Join(qc.FavoriteArtists, ", "))
	}

	ratio, ok := mixRatios[qc.Diversity]
	if !ok {
		ratio = mixRatios[model.DiversityMedium]
	}
	fmt.Fprintf(&b, "Suggest search queries for similar music: %s.\n", ratio)

	b.WriteString("Match the language and culture of the seed track: " +
		"do not mix languages present in the seed with unrelated languages.\n")
	fmt.Fprintf(&b, "Respond with ONLY a JSON array of at most %d search query strings, "+
		"each usable on a music search engine. No commentary, no markdown.", maxAIQueries)

	return b.String()
}

// ParseQueries extracts a JSON array of query strings from a raw model
// response, tolerating markdown code-fence wrapping.
func ParseQueries(raw string) ([]string, error) {
	cleaned := stripCodeFences(raw)

	start := strings.IndexByte(cleaned, '[')
	end := strings.LastIndexByte(cleaned, ']')
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var queries []string
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &queries); err != nil {
		return nil, fmt.Errorf("parse query array: %w", err)
	}

	out := make([]string, 0, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		out = append(out, q)
		if len(out) >= maxAIQueries {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty query array")
	}
	return out, nil
}

func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx != -1 {
		// Drop the language tag line ("json", "JSON", ...).
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
