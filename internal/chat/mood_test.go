package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/solacebot/solace/internal/store"
)

func moodAt(day int, mood float64) store.MoodSample {
	return store.MoodSample{
		UserID: "u1",
		Date:   time.Date(2026, 8, day, 12, 0, 0, 0, time.UTC),
		Mood:   mood,
	}
}

func TestAnalyzeMoodTrendNoData(t *testing.T) {
	gen := &fakeGenerator{reply: "Answer: unused"}
	svc, _, _ := newTestHarness(t, gen)

	if got := svc.AnalyzeMoodTrend(context.Background(), nil); got != noMoodDataReply {
		t.Errorf("got %q, want %q", got, noMoodDataReply)
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times for empty samples", gen.calls)
	}
}

func TestComputeMoodStats(t *testing.T) {
	tests := []struct {
		name      string
		samples   []store.MoodSample
		wantAvg   float64
		wantTrend string
	}{
		{
			name:      "improving",
			samples:   []store.MoodSample{moodAt(3, 7), moodAt(1, 3), moodAt(2, 5)},
			wantAvg:   5,
			wantTrend: "improving",
		},
		{
			name:      "declining",
			samples:   []store.MoodSample{moodAt(1, 8), moodAt(2, 4)},
			wantAvg:   6,
			wantTrend: "declining",
		},
		{
			name:      "flat",
			samples:   []store.MoodSample{moodAt(1, 6), moodAt(5, 6)},
			wantAvg:   6,
			wantTrend: "stable",
		},
		{
			name:      "single sample is stable",
			samples:   []store.MoodSample{moodAt(1, 2)},
			wantAvg:   2,
			wantTrend: "stable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := computeMoodStats(tt.samples)
			if stats.Average != tt.wantAvg {
				t.Errorf("average = %v, want %v", stats.Average, tt.wantAvg)
			}
			if stats.Trend != tt.wantTrend {
				t.Errorf("trend = %q, want %q", stats.Trend, tt.wantTrend)
			}
		})
	}
}

func TestComputeMoodStatsSortsByDate(t *testing.T) {
	// Delivered newest first; latest-vs-first must follow dates, not order.
	samples := []store.MoodSample{moodAt(9, 9), moodAt(1, 2)}
	stats := computeMoodStats(samples)
	if stats.Latest != 9 {
		t.Errorf("latest = %v, want 9", stats.Latest)
	}
	if stats.Trend != "improving" {
		t.Errorf("trend = %q, want improving", stats.Trend)
	}
}

func TestAnalyzeMoodTrendUsesGeneratedInsight(t *testing.T) {
	gen := &fakeGenerator{reply: "Answer: You've been trending upward lately. Keep going."}
	svc, _, _ := newTestHarness(t, gen)

	got := svc.AnalyzeMoodTrend(context.Background(), []store.MoodSample{moodAt(1, 4), moodAt(2, 7)})
	if got != "You've been trending upward lately. Keep going." {
		t.Errorf("got %q, want the extracted insight", got)
	}
	if !strings.Contains(gen.last, "Average mood: 5.5/10") {
		t.Errorf("prompt missing average stat:\n%s", gen.last)
	}
	if !strings.Contains(gen.last, "Overall trend: improving") {
		t.Errorf("prompt missing trend stat:\n%s", gen.last)
	}
}

func TestAnalyzeMoodTrendFallsBackOnGeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	svc, _, _ := newTestHarness(t, gen)

	got := svc.AnalyzeMoodTrend(context.Background(), []store.MoodSample{moodAt(1, 8), moodAt(2, 4)})
	want := "Your average mood has been 6.0/10, and I notice a declining trend. Keep tracking your moods to better understand your emotional patterns."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
