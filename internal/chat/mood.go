package chat

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/solacebot/solace/internal/extract"
	"github.com/solacebot/solace/internal/store"
)

// noMoodDataReply is returned for an empty sample set.
const noMoodDataReply = "No mood data available for analysis."

type moodStats struct {
	Average float64
	Latest  float64
	Trend   string
}

// AnalyzeMoodTrend summarizes a user's mood samples with a short generated
// insight. Never returns an error: if generation fails, a deterministic
// sentence built from the same statistics is returned instead.
func (s *Service) AnalyzeMoodTrend(ctx context.Context, moods []store.MoodSample) string {
	if len(moods) == 0 {
		return noMoodDataReply
	}

	stats := computeMoodStats(moods)
	prompt := moodPrompt(stats)

	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		log.Printf("chat: mood insight generation failed: %v", err)
		s.metrics.CountPipelineError("generate")
		return moodFallback(stats)
	}
	return extract.Answer(raw)
}

// computeMoodStats sorts by date and derives the statistics the prompt and
// the fallback both use. Trend compares only first and last samples; the
// intermediate shape of the series is deliberately ignored.
func computeMoodStats(moods []store.MoodSample) moodStats {
	sorted := make([]store.MoodSample, len(moods))
	copy(sorted, moods)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	var sum float64
	for _, m := range sorted {
		sum += m.Mood
	}
	avg := sum / float64(len(sorted))
	latest := sorted[len(sorted)-1].Mood

	trendValue := 0.0
	if len(sorted) > 1 {
		trendValue = latest - sorted[0].Mood
	}

	trend := "stable"
	switch {
	case trendValue > 0:
		trend = "improving"
	case trendValue < 0:
		trend = "declining"
	}

	return moodStats{Average: avg, Latest: latest, Trend: trend}
}

func moodPrompt(stats moodStats) string {
	return fmt.Sprintf(`You are analyzing mood data for a therapy user. Create a brief, empathetic insight based on these statistics:
- Average mood: %.1f/10
- Latest mood: %g/10
- Overall trend: %s

Use ONLY the following format:
Answer: <2-3 sentences of empathetic insight>`, stats.Average, stats.Latest, stats.Trend)
}

func moodFallback(stats moodStats) string {
	return fmt.Sprintf(
		"Your average mood has been %.1f/10, and I notice a %s trend. Keep tracking your moods to better understand your emotional patterns.",
		stats.Average, stats.Trend,
	)
}
