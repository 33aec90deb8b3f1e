package resolver

import (
	"context"
	"errors"
	"testing"

	"AutoQFM/core/provider"

	"github.com/stretchr/testify/require"
)

type searchCall struct {
	query string
	kind  provider.Kind
}

type fakeProvider struct {
	calls   []searchCall
	respond func(query string, kind provider.Kind) ([]provider.RawResult, error)
}

func (f *fakeProvider) Search(_ context.Context, query string, kind provider.Kind, _ int) ([]provider.RawResult, error) {
	f.calls = append(f.calls, searchCall{query: query, kind: kind})
	return f.respond(query, kind)
}

func rawSong(id, title, artist string) provider.RawResult {
	return provider.RawResult{ID: id, Title: title, Artist: artist, VideoID: id, Kind: "song"}
}

func TestResolveStrictStageWins(t *testing.T) {
	fake := &fakeProvider{
		respond: func(string, provider.Kind) ([]provider.RawResult, error) {
			return []provider.RawResult{rawSong("t1", "Sunrise", "Nova")}, nil
		},
	}

	got := New(fake).Resolve(context.Background(), "Nova best songs", 10)

	require.Len(t, got, 1)
	require.Equal(t, "t1", got[0].ID)
	require.Len(t, fake.calls, 1)
	require.Equal(t, provider.KindSong, fake.calls[0].kind)
}

func TestResolveFallsBackToBroadSearch(t *testing.T) {
	fake := &fakeProvider{
		respond: func(_ string, kind provider.Kind) ([]provider.RawResult, error) {
			if kind == provider.KindSong {
				return nil, nil
			}
			return []provider.RawResult{
				{ID: "v1", Title: "Sunrise", Artist: "Nova", VideoID: "v1", Kind: "video"},
				{ID: "p1", Title: "Nova Mix", Artist: "Nova", VideoID: "p1", Kind: "playlist"},
			}, nil
		},
	}

	got := New(fake).Resolve(context.Background(), "Nova", 10)

	// The playlist-kind record is filtered out of broad results.
	require.Len(t, got, 1)
	require.Equal(t, "v1", got[0].ID)
}

func TestResolveTransposesArtistTitleQueries(t *testing.T) {
	fake := &fakeProvider{
		respond: func(query string, _ provider.Kind) ([]provider.RawResult, error) {
			if query == "Sunrise Nova" {
				return []provider.RawResult{rawSong("t1", "Sunrise", "Nova")}, nil
			}
			return nil, nil
		},
	}

	got := New(fake).Resolve(context.Background(), "Nova - Sunrise", 10)

	require.Len(t, got, 1)
	require.Equal(t, "Sunrise Nova", fake.calls[2].query)
}

func TestResolveSimplifiesNoisyQueries(t *testing.T) {
	fake := &fakeProvider{
		respond: func(query string, _ provider.Kind) ([]provider.RawResult, error) {
			if query == "Nova Ember" {
				return []provider.RawResult{rawSong("t1", "Ember", "Nova")}, nil
			}
			return nil, nil
		},
	}

	got := New(fake).Resolve(context.Background(), "Nova: Ember!!! Songs", 10)

	require.Len(t, got, 1)
	require.Equal(t, "t1", got[0].ID)
}

func TestResolveEmergencyFallback(t *testing.T) {
	fake := &fakeProvider{
		respond: func(query string, _ provider.Kind) ([]provider.RawResult, error) {
			if query == emergencyArtists[0] {
				return []provider.RawResult{rawSong("e1", "Anti-Hero", emergencyArtists[0])}, nil
			}
			return nil, nil
		},
	}

	got := New(fake).Resolve(context.Background(), "zzzz unfindable zzzz", 10)

	require.Len(t, got, 1)
	require.Equal(t, "e1", got[0].ID)
}

func TestResolveNeverReturnsErrorWhenProviderIsDown(t *testing.T) {
	fake := &fakeProvider{
		respond: func(string, provider.Kind) ([]provider.RawResult, error) {
			return nil, errors.New("connection refused")
		},
	}

	got := New(fake).Resolve(context.Background(), "anything", 10)

	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestMapResultsDiscardsUnusableRecords(t *testing.T) {
	raw := []provider.RawResult{
		{ID: "t1", Title: "", Artist: "Nova", VideoID: "t1"},
		{Title: "No Reference", Artist: "Nova"},
		{ID: "t3", Title: "Keeper", Artist: "Nova", Thumbnail: "https://img.example/t3.jpg?w=64"},
	}

	got := mapResults(raw, 10, false)

	require.Len(t, got, 1)
	require.Equal(t, "t3", got[0].ID)
	require.Equal(t, "t3", got[0].VideoID)
	require.Equal(t, "https://img.example/t3.jpg?param=300y300", got[0].Thumbnail)
}
