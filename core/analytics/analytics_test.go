package analytics

import (
	"fmt"
	"testing"
	"time"

	"AutoQFM/model"

	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func track(id, title, artist string) model.Track {
	return model.Track{ID: id, Title: title, Artist: artist, VideoID: id}
}

func TestShouldTriggerAISessionLengthWindow(t *testing.T) {
	tests := []struct {
		length int
		want   bool
	}{
		{length: 4, want: false},
		{length: 5, want: true},
		{length: 6, want: true},
		{length: 7, want: false},
		{length: 15, want: true},
		{length: 16, want: false},
		{length: 30, want: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("length_%d", tt.length), func(t *testing.T) {
			a := New(nil)
			for i := 0; i < tt.length; i++ {
				a.RecordPlay(track(fmt.Sprintf("t%d", i), fmt.Sprintf("Song %d", i), "Nova"))
			}
			require.Equal(t, tt.want, a.ShouldTriggerAI())
		})
	}
}

func TestShouldTriggerAIBurstSkips(t *testing.T) {
	a := New(nil)
	a.RecordPlay(track("t1", "Aurora", "Nova"))
	a.RecordSkip(track("t2", "Basalt", "Nova"), 3)
	a.RecordSkip(track("t3", "Cinder", "Nova"), 4)
	a.RecordSkip(track("t4", "Driftwood", "Nova"), 5)

	require.True(t, a.ShouldTriggerAI())
}

func TestShouldTriggerAINonConsecutiveSkips(t *testing.T) {
	a := New(nil)
	a.RecordPlay(track("t1", "Aurora", "Nova"))
	a.RecordSkip(track("t2", "Basalt", "Nova"), 3)
	a.RecordSkip(track("t3", "Cinder", "Nova"), 5)
	a.RecordSkip(track("t4", "Driftwood", "Nova"), 6)

	require.False(t, a.ShouldTriggerAI())
}

func TestDiversityFor(t *testing.T) {
	tests := []struct {
		name          string
		sessionLength int
		skipRate      float64
		want          model.DiversityLevel
	}{
		{name: "short session is low", sessionLength: 3, skipRate: 0.0, want: model.DiversityLow},
		{name: "medium session", sessionLength: 10, skipRate: 0.1, want: model.DiversityMedium},
		{name: "high skip rate wins over long session", sessionLength: 20, skipRate: 0.4, want: model.DiversityHigh},
		{name: "long calm session is medium", sessionLength: 20, skipRate: 0.1, want: model.DiversityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, DiversityFor(tt.sessionLength, tt.skipRate))
		})
	}
}

func TestAnalyzeAggregates(t *testing.T) {
	a := New(fixedClock(time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)))

	nova := track("t1", "Sunrise", "Nova")
	nova.Duration = 200
	a.RecordPlay(nova)
	kelp := track("t2", "Ocean Floor", "Kelp")
	kelp.Duration = 100
	a.RecordPlay(kelp)
	a.RecordPlay(track("t3", "Harbor", "Nova"))
	a.RecordSkip(track("t4", "Granite", "Slag"), 7)

	got := a.Analyze()

	require.InDelta(t, 0.25, got.SkipRate, 1e-9)
	require.InDelta(t, 75.0, got.AvgListenSeconds, 1e-9)
	require.Equal(t, []string{"Nova", "Kelp"}, got.TopArtists)
	require.Equal(t, "morning", got.TimeOfDay)
	require.InDelta(t, 2.0, got.ArtistAffinity["Nova"], 1e-9)
	require.InDelta(t, -0.5, got.ArtistAffinity["Slag"], 1e-9)
}

func TestInferMood(t *testing.T) {
	tests := []struct {
		name   string
		titles []string
		want   model.Mood
	}{
		{
			name:   "energetic session",
			titles: []string{"Gym Workout Mix", "Dance All Night", "Power Surge", "Morning Walk"},
			want:   model.MoodEnergetic,
		},
		{
			name:   "chill session",
			titles: []string{"Lofi Beats", "Rainy Piano", "Acoustic Evening"},
			want:   model.MoodChill,
		},
		{
			name:   "mixed session",
			titles: []string{"Dance Floor", "Rainy Piano", "Club Anthem", "Calm Waters"},
			want:   model.MoodMixed,
		},
		{
			name:   "no signal",
			titles: []string{"Sunrise", "Harbor"},
			want:   model.MoodUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(nil)
			for i, title := range tt.titles {
				a.RecordPlay(track(fmt.Sprintf("t%d", i), title, "Various"))
			}
			require.Equal(t, tt.want, a.Analyze().Mood)
		})
	}
}

func TestResetClearsSession(t *testing.T) {
	a := New(nil)
	a.RecordPlay(track("t1", "Sunrise", "Nova"))
	a.RecordSkip(track("t2", "Harbor", "Nova"), 1)
	require.Equal(t, 2, a.Len())

	a.Reset()

	require.Equal(t, 0, a.Len())
	require.False(t, a.ShouldTriggerAI())
}
