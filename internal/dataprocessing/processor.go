package dataprocessing

import (
	"sort"
	"time"

	"revforecast/pkg/contracts/domain"
)

// GapFillProcessor reintroduces calendar days with no recorded sales
type GapFillProcessor struct{}

// NewGapFillProcessor creates a new gap-fill processor
func NewGapFillProcessor() *GapFillProcessor {
	return &GapFillProcessor{}
}

// FillGaps returns a series with one point per calendar day between the
// first and last input date. Missing days become zero-revenue points
// marked Filled. When the input carries order counts, filled days get a
// zero count and no mean order value. Points sharing a date keep the first.
func (f *GapFillProcessor) FillGaps(points []domain.DailyPoint) []domain.DailyPoint {
	if len(points) == 0 {
		return nil
	}

	byDate := make(map[time.Time]domain.DailyPoint, len(points))
	for _, p := range points {
		day := truncateDay(p.DS)
		if _, exists := byDate[day]; !exists {
			p.DS = day
			byDate[day] = p
		}
	}

	dates := f.getSortedDates(byDate)
	withCounts := points[0].OrderCount != nil

	first, last := dates[0], dates[len(dates)-1]
	result := make([]domain.DailyPoint, 0, int(last.Sub(first).Hours()/24)+1)

	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if p, exists := byDate[day]; exists {
			result = append(result, p)
			continue
		}
		result = append(result, f.createFilledPoint(day, withCounts))
	}

	return result
}

// createFilledPoint creates the zero point of a day without sales
func (f *GapFillProcessor) createFilledPoint(day time.Time, withCounts bool) domain.DailyPoint {
	p := domain.DailyPoint{DS: day, Y: 0, Filled: true}
	if withCounts {
		zero := 0
		p.OrderCount = &zero
	}
	return p
}

// getSortedDates extracts and sorts the keys of a date-keyed map
func (f *GapFillProcessor) getSortedDates(m map[time.Time]domain.DailyPoint) []time.Time {
	dates := make([]time.Time, 0, len(m))
	for d := range m {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// GapFillStatistics represents gap-fill operation statistics
type GapFillStatistics struct {
	TotalDays    int
	ObservedDays int
	FilledDays   int
	FirstDate    time.Time
	LastDate     time.Time
}

// FillGapsWithStats performs gap filling and returns statistics
func (f *GapFillProcessor) FillGapsWithStats(points []domain.DailyPoint) ([]domain.DailyPoint, GapFillStatistics) {
	filled := f.FillGaps(points)

	stats := GapFillStatistics{TotalDays: len(filled)}
	for _, p := range filled {
		if p.Filled {
			stats.FilledDays++
		} else {
			stats.ObservedDays++
		}
	}
	if len(filled) > 0 {
		stats.FirstDate = filled[0].DS
		stats.LastDate = filled[len(filled)-1].DS
	}

	return filled, stats
}
