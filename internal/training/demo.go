package training

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/verte-zerg/brainbuddy/internal/brainwave"
	"github.com/verte-zerg/brainbuddy/internal/model"
)

// DemoUsers are the default owners of generated demo sessions.
var DemoUsers = []string{"demo_user_1", "demo_user_2", "demo_user_3"}

const demoHistoryDays = 180

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func pick[T any](rnd *rand.Rand, items []T) T {
	return items[rnd.Intn(len(items))]
}

// GenerateDemoSessions builds n plausible sessions spread over the last 180
// days before now.
func GenerateDemoSessions(rnd *rand.Rand, users []string, n int, now time.Time) []NewSession {
	if len(users) == 0 {
		users = DemoUsers
	}
	start := now.AddDate(0, 0, -demoHistoryDays)
	out := make([]NewSession, 0, n)
	for i := 0; i < n; i++ {
		ended := start.Add(time.Duration(rnd.Intn(demoHistoryDays+1))*24*time.Hour + time.Duration(rnd.Intn(24))*time.Hour)
		in := NewSession{
			UserID:          pick(rnd, users),
			ModuleType:      pick(rnd, model.ModuleTypes),
			DurationSeconds: 300 + rnd.Intn(3301),
			EndedAt:         &ended,
		}
		if rnd.Float64() > 0.2 {
			rating := 1 + rnd.Intn(5)
			in.UserRating = &rating
		}
		if rnd.Float64() > 0.3 {
			score := round2(0.5 + rnd.Float64()*0.5)
			in.EffectivenessScore = &score
		}
		switch in.ModuleType {
		case model.ModuleBrainwave:
			band := pick(rnd, brainwave.Bands())
			in.BrainwaveTarget = string(band)
			in.GeneratedContent = demoMusic(rnd, band)
		case model.ModuleMovers:
			in.GeneratedContent = map[string]any{
				"meditation_duration": 5 + rnd.Intn(11),
				"breathwork_cycles":   3 + rnd.Intn(8),
				"exercise_type":       pick(rnd, []string{"yoga", "stretching", "cardio", "strength"}),
				"reading_topic":       pick(rnd, []string{"neuroplasticity", "habit_formation", "mindfulness"}),
			}
		case model.ModulePFCGym:
			in.GeneratedContent = map[string]any{
				"protocol_type":       pick(rnd, []string{"procrastination_breaker", "habit_rewire", "emotional_regulation"}),
				"trigger_identified":  pick(rnd, []string{"notification", "boredom", "stress", "fatigue"}),
				"interrupt_technique": pick(rnd, []string{"breathing", "movement", "cold_water", "state_shift"}),
				"focus_score":         round2(0.5 + rnd.Float64()*0.5),
			}
		case model.ModuleMentalRehearsal:
			in.GeneratedContent = map[string]any{
				"skill_target":    pick(rnd, []string{"public_speaking", "athletic_performance", "piano", "coding", "negotiation"}),
				"detail_level":    pick(rnd, []string{"basic", "moderate", "high", "expert"}),
				"repetitions":     3 + rnd.Intn(8),
				"vividness_score": round2(0.6 + rnd.Float64()*0.4),
			}
		}
		out = append(out, in)
	}
	return out
}

func demoMusic(rnd *rand.Rand, band brainwave.Band) map[string]any {
	info, _ := brainwave.Info(band)
	base := info.LowHz + rnd.Float64()*(info.HighHz-info.LowHz)
	return map[string]any{
		"carrier_frequency":         round2(base + 200 + rnd.Float64()*200),
		"binaural_beat_frequency":   round2(base),
		"isochronic_tone_frequency": round2(base * 2),
		"volume":                    round2(0.4 + rnd.Float64()*0.3),
		"tempo_bpm":                 int(60 + base*2),
		"modulation_depth":          round2(0.1 + rnd.Float64()*0.4),
	}
}

// SeedDemoSessions stores generated demo sessions.
func (s *Service) SeedDemoSessions(ctx context.Context, rnd *rand.Rand, users []string, n int) (int, error) {
	for i, in := range GenerateDemoSessions(rnd, users, n, s.now()) {
		if _, err := s.CreateSession(ctx, in); err != nil {
			return i, err
		}
	}
	return n, nil
}
