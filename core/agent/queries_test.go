package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"AutoQFM/model"

	"github.com/stretchr/testify/require"
)

func TestParseQueries(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{
			name: "plain array",
			raw:  `["Nova best songs", "dream pop 2020s"]`,
			want: []string{"Nova best songs", "dream pop 2020s"},
		},
		{
			name: "markdown fenced",
			raw:  "```json\n[\"Nova best songs\"]\n```",
			want: []string{"Nova best songs"},
		},
		{
			name: "surrounding prose",
			raw:  "Here are some ideas:\n[\"shoegaze classics\", \"Nova similar artists\"]\nEnjoy!",
			want: []string{"shoegaze classics", "Nova similar artists"},
		},
		{
			name: "drops blank entries",
			raw:  `["", "  ", "Nova b-sides"]`,
			want: []string{"Nova b-sides"},
		},
		{
			name: "caps at eight",
			raw:  `["q1","q2","q3","q4","q5","q6","q7","q8","q9","q10"]`,
			want: []string{"q1", "q2", "q3", "q4", "q5", "q6", "q7", "q8"},
		},
		{
			name:    "not json",
			raw:     "sorry, I can't help with that",
			wantErr: true,
		},
		{
			name:    "wrong element type",
			raw:     `[{"query": "nope"}]`,
			wantErr: true,
		},
		{
			name:    "empty array",
			raw:     `[]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQueries(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestBuildPromptEmbedsContext(t *testing.T) {
	prompt := BuildPrompt(model.QueryContext{
		Seed:            model.Track{ID: "t1", Title: "Sunrise", Artist: "Nova"},
		FavoriteArtists: []string{"Kelp", "Slag"},
		Genres:          []string{"dream pop", "shoegaze"},
		Diversity:       model.DiversityHigh,
	})

	require.Contains(t, prompt, `"Sunrise"`)
	require.Contains(t, prompt, `"Nova"`)
	require.Contains(t, prompt, "Kelp, Slag")
	require.Contains(t, prompt, "dream pop, shoegaze")
	require.Contains(t, prompt, "30% from the listener's favorite artists")
	require.Contains(t, prompt, "do not mix languages")
}

func TestQueriesReturnsNilOnGatewayError(t *testing.T) {
	svc := &fakeTextService{
		respond: func(string, int) (string, error) {
			return "", errors.New("network down")
		},
	}
	q := NewQueryGenerator(newGateway(svc, newFakeClock()))

	got := q.Queries(context.Background(), model.QueryContext{
		Seed: model.Track{ID: "t1", Title: "Sunrise", Artist: "Nova"},
	})

	require.Nil(t, got)
}

func TestQueriesReturnsNilOnParseFailure(t *testing.T) {
	svc := &fakeTextService{
		respond: func(string, int) (string, error) {
			return "no list here", nil
		},
	}
	q := NewQueryGenerator(newGateway(svc, newFakeClock()))

	got := q.Queries(context.Background(), model.QueryContext{
		Seed: model.Track{ID: "t1", Title: "Sunrise", Artist: "Nova"},
	})

	require.Nil(t, got)
}

func TestQueriesParsesGatewayOutput(t *testing.T) {
	svc := &fakeTextService{
		respond: func(string, int) (string, error) {
			return "```json\n[\"Nova deep cuts\", \"late night shoegaze\"]\n```", nil
		},
	}
	q := NewQueryGenerator(newGateway(svc, newFakeClock()))

	got := q.Queries(context.Background(), model.QueryContext{
		Seed:      model.Track{ID: "t1", Title: "Sunrise", Artist: "Nova"},
		Diversity: model.DiversityLow,
	})

	require.Equal(t, []string{"Nova deep cuts", "late night shoegaze"}, got)
	require.True(t, strings.Contains(svc.lastPrompt, "70% from the listener's favorite artists"))
}
