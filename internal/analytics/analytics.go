// Package analytics derives SessionSummary and DailyStats views from the
// raw timeline, by gap-based partitioning of inference ticks.
package analytics

import (
	"math"
	"sort"
	"time"

	"cogload/internal/domain"
)

// entryQuerier is the subset of store.DB analytics needs — kept narrow so
// tests can fake it without an on-disk database.
type entryQuerier interface {
	RecentEntries(since, until *float64, source *domain.Source, limit int) ([]domain.TimelineEntry, error)
}

const defaultGapMinutes = 10.0

// Sessions groups engine inference_tick entries into contiguous work
// sessions: a gap larger than gapMinutes between consecutive ticks starts a
// new session. Returned oldest-to-newest.
func Sessions(q entryQuerier, since, until *float64, gapMinutes float64) ([]domain.SessionSummary, error) {
	if gapMinutes <= 0 {
		gapMinutes = defaultGapMinutes
	}
	engine := domain.SourceEngine
	entries, err := q.RecentEntries(since, until, &engine, 10_000)
	if err != nil {
		return nil, err
	}

	ticks := chronologicalTicks(entries)
	if len(ticks) == 0 {
		return nil, nil
	}

	gapSeconds := gapMinutes * 60.0
	var raw [][]domain.TimelineEntry
	current := []domain.TimelineEntry{ticks[0]}
	for _, tick := range ticks[1:] {
		if tick.Timestamp-current[len(current)-1].Timestamp > gapSeconds {
			raw = append(raw, current)
			current = []domain.TimelineEntry{tick}
		} else {
			current = append(current, tick)
		}
	}
	raw = append(raw, current)

	result := make([]domain.SessionSummary, len(raw))
	for i, ticks := range raw {
		result[i] = buildSession(i, ticks)
	}
	return result, nil
}

// chronologicalTicks filters to inference_tick entries and reverses the
// store's newest-first order into chronological order.
func chronologicalTicks(entries []domain.TimelineEntry) []domain.TimelineEntry {
	var ticks []domain.TimelineEntry
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].EventType == "inference_tick" {
			ticks = append(ticks, entries[i])
		}
	}
	return ticks
}

func buildSession(index int, ticks []domain.TimelineEntry) domain.SessionSummary {
	ctxCounts := map[domain.CognitiveContext]int{}
	var ctxOrder []domain.CognitiveContext
	var sum, peak float64
	for i, t := range ticks {
		if i == 0 || t.LoadScore > peak {
			peak = t.LoadScore
		}
		sum += t.LoadScore
		if _, seen := ctxCounts[t.Context]; !seen {
			ctxOrder = append(ctxOrder, t.Context)
		}
		ctxCounts[t.Context]++
	}
	total := len(ticks)
	dist := map[domain.CognitiveContext]float64{}
	var dominant domain.CognitiveContext
	dominantCount := -1
	// Scan in first-seen order, not map iteration order, so a tie between
	// two contexts always resolves to whichever appeared earlier in the
	// session — map ranging would make that pick nondeterministic.
	for _, ctx := range ctxOrder {
		c := ctxCounts[ctx]
		dist[ctx] = roundTo(float64(c)/float64(total), 4)
		if c > dominantCount {
			dominantCount = c
			dominant = ctx
		}
	}

	return domain.SessionSummary{
		SessionIndex:        index,
		StartTS:             ticks[0].Timestamp,
		EndTS:               ticks[total-1].Timestamp,
		DurationMinutes:     roundTo((ticks[total-1].Timestamp-ticks[0].Timestamp)/60.0, 2),
		TickCount:           total,
		AvgLoadScore:        roundTo(sum/float64(total), 4),
		PeakLoadScore:       roundTo(peak, 4),
		ContextDistribution: dist,
		DominantContext:     dominant,
	}
}

// DailyStats returns one record per UTC calendar day in [since, until],
// covering the last 7 days when both bounds are nil.
func DailyStats(q entryQuerier, since, until *float64, gapMinutes float64, now time.Time) ([]domain.DailyStats, error) {
	if since == nil {
		d := float64(now.Unix()) - 7*24*3600
		since = &d
	}
	if until == nil {
		d := float64(now.Unix())
		until = &d
	}

	engine := domain.SourceEngine
	entries, err := q.RecentEntries(since, until, &engine, 50_000)
	if err != nil {
		return nil, err
	}
	ticks := chronologicalTicks(entries)
	if len(ticks) == 0 {
		return nil, nil
	}

	byDate := map[string][]domain.TimelineEntry{}
	for _, t := range ticks {
		day := time.Unix(int64(t.Timestamp), 0).UTC().Format("2006-01-02")
		byDate[day] = append(byDate[day], t)
	}

	sessions, err := Sessions(q, since, until, gapMinutes)
	if err != nil {
		return nil, err
	}
	sessionsByDate := map[string][]domain.SessionSummary{}
	for _, s := range sessions {
		day := time.Unix(int64(s.StartTS), 0).UTC().Format("2006-01-02")
		sessionsByDate[day] = append(sessionsByDate[day], s)
	}

	var days []string
	for day := range byDate {
		days = append(days, day)
	}
	sort.Strings(days)

	out := make([]domain.DailyStats, 0, len(days))
	for _, day := range days {
		dayTicks := byDate[day]
		ctxCounts := map[domain.CognitiveContext]int{}
		var sum, peak float64
		for i, t := range dayTicks {
			if i == 0 || t.LoadScore > peak {
				peak = t.LoadScore
			}
			sum += t.LoadScore
			ctxCounts[t.Context]++
		}
		total := len(dayTicks)
		dist := map[domain.CognitiveContext]float64{}
		for ctx, c := range ctxCounts {
			dist[ctx] = float64(c) / float64(total)
		}

		daySessions := sessionsByDate[day]
		var totalSessionMin float64
		for _, s := range daySessions {
			totalSessionMin += s.DurationMinutes
		}
		focusFraction := dist[domain.ContextDeepFocus]

		out = append(out, domain.DailyStats{
			Date:                day,
			TickCount:           total,
			SessionCount:        len(daySessions),
			AvgLoadScore:        roundTo(sum/float64(total), 4),
			PeakLoadScore:       roundTo(peak, 4),
			TotalSessionMinutes: roundTo(totalSessionMin, 1),
			FocusMinutes:        roundTo(totalSessionMin*focusFraction, 1),
			ContextDistribution: dist,
		})
	}
	return out, nil
}

func roundTo(v float64, places int) float64 {
	mult := math.Pow(10, float64(places))
	return math.Round(v*mult) / mult
}
