package dataprocessing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "revforecast/internal/errors"
	"revforecast/pkg/contracts/domain"
)

func mergedFixture(t *testing.T) *domain.MergedSet {
	t.Helper()
	merged, err := NewMerger(nil).Merge(context.Background(), testTables())
	require.NoError(t, err)
	return merged
}

func TestNormalizer_Normalize(t *testing.T) {
	merged := mergedFixture(t)

	records, err := NewNormalizer(domain.ColumnPurchaseTimestamp, nil).Normalize(context.Background(), merged)
	require.NoError(t, err)
	require.Len(t, records, len(merged.Records))

	known := 0
	for i, r := range records {
		assert.Equal(t, merged.Records[i], r.OrderRecord, "record order is preserved")
		if r.Order.OrderID == "o5" {
			assert.False(t, r.HasDate())
			ts, present := r.Timestamps[domain.ColumnPurchaseTimestamp]
			assert.True(t, present)
			assert.Nil(t, ts, "unparsable timestamp is marked unknown")
			continue
		}
		require.True(t, r.HasDate(), "order %s", r.Order.OrderID)
		known++
	}
	assert.Equal(t, 5, known)

	first := records[0]
	assert.Equal(t, day("2018-01-01"), first.Calendar.Date)
	assert.Equal(t, 10, first.Timestamps[domain.ColumnPurchaseTimestamp].Hour())
}

func TestNormalizer_OnlyPresentColumnsParsed(t *testing.T) {
	merged := mergedFixture(t)
	merged.OrderColumns = []string{"order_id", "customer_id", domain.ColumnPurchaseTimestamp}

	records, err := NewNormalizer("", nil).Normalize(context.Background(), merged)
	require.NoError(t, err)
	_, hasApproved := records[0].Timestamps[domain.ColumnApprovedAt]
	assert.False(t, hasApproved)
}

func TestNormalizer_MissingColumn(t *testing.T) {
	tests := []struct {
		name   string
		column string
		cols   []string
	}{
		{"canonical column absent", domain.ColumnPurchaseTimestamp, []string{"order_id", "customer_id"}},
		{"column is not a timestamp", "order_status", []string{"order_id", "order_status"}},
		{"column unknown everywhere", "shipped_at", []string{"order_id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := &domain.MergedSet{OrderColumns: tt.cols}
			_, err := NewNormalizer(tt.column, nil).Normalize(context.Background(), merged)
			require.Error(t, err)
			assert.True(t, apperrors.IsMissingColumnError(err))
			assert.Contains(t, err.Error(), tt.column)
			assert.Contains(t, err.Error(), "normalize")
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		raw    string
		want   time.Time
		wantOK bool
	}{
		{"2017-10-02 10:56:33", time.Date(2017, 10, 2, 10, 56, 33, 0, time.UTC), true},
		{"2017-10-02T10:56:33", time.Date(2017, 10, 2, 10, 56, 33, 0, time.UTC), true},
		{" 2017-10-02 ", time.Date(2017, 10, 2, 0, 0, 0, 0, time.UTC), true},
		{"10/02/2017 10:56", time.Date(2017, 10, 2, 10, 56, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"yesterday", time.Time{}, false},
		{"2017-13-45 00:00:00", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "got %v", got)
			}
		})
	}
}

func TestCalendarFor(t *testing.T) {
	tests := []struct {
		name        string
		date        time.Time
		wantDOW     int
		wantWeekend bool
		wantISOYear int
		wantISOWeek int
		wantMonth   int
	}{
		{"monday", time.Date(2018, 1, 1, 23, 59, 0, 0, time.UTC), 0, false, 2018, 1, 1},
		{"friday", time.Date(2018, 1, 5, 0, 0, 0, 0, time.UTC), 4, false, 2018, 1, 1},
		{"saturday", time.Date(2018, 1, 6, 12, 0, 0, 0, time.UTC), 5, true, 2018, 1, 1},
		{"sunday", time.Date(2018, 1, 7, 12, 0, 0, 0, time.UTC), 6, true, 2018, 1, 1},
		{"sunday in previous ISO year", time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC), 6, true, 2016, 52, 1},
		{"ISO week 53", time.Date(2016, 1, 3, 0, 0, 0, 0, time.UTC), 6, true, 2015, 53, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal := CalendarFor(tt.date)
			assert.Equal(t, tt.wantDOW, cal.DayOfWeek)
			assert.Equal(t, tt.wantWeekend, cal.Weekend)
			assert.Equal(t, tt.wantISOYear, cal.ISOYear)
			assert.Equal(t, tt.wantISOWeek, cal.ISOWeek)
			assert.Equal(t, tt.wantMonth, cal.Month)
			assert.Zero(t, cal.Date.Hour())
		})
	}
}
