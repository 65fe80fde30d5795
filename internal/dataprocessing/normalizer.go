package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	apperrors "revforecast/internal/errors"
	"revforecast/pkg/contracts/domain"
)

const stageNormalize = "normalize"

// Normalizer parses the order timestamps of merged records and derives the
// calendar attributes of the canonical timestamp column.
type Normalizer struct {
	column string
	logger *slog.Logger
}

// NewNormalizer creates a normalizer whose canonical date comes from column.
func NewNormalizer(column string, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if column == "" {
		column = domain.ColumnPurchaseTimestamp
	}
	return &Normalizer{
		column: column,
		logger: logger.With(slog.String("component", "normalizer")),
	}
}

// Normalize returns one normalized record per merged record, in the same
// order. Every timestamp column present on the orders table is parsed; an
// unparsable value is kept as a nil timestamp. Records whose canonical
// timestamp is unknown get a nil Calendar. The canonical column must exist
// on the orders table.
func (n *Normalizer) Normalize(ctx context.Context, merged *domain.MergedSet) ([]domain.NormalizedRecord, error) {
	if merged == nil || !merged.HasOrderColumn(n.column) {
		var available []string
		if merged != nil {
			available = merged.OrderColumns
		}
		return nil, apperrors.NewMissingColumnError(stageNormalize, n.column, available)
	}
	if _, known := (domain.Order{}).Timestamp(n.column); !known {
		return nil, apperrors.NewMissingColumnError(stageNormalize, n.column, domain.OrderTimestampColumns)
	}

	var present []string
	for _, col := range domain.OrderTimestampColumns {
		if merged.HasOrderColumn(col) {
			present = append(present, col)
		}
	}

	out := make([]domain.NormalizedRecord, len(merged.Records))
	unknown := make(map[string]int)

	for i, rec := range merged.Records {
		if i%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		nr := domain.NormalizedRecord{
			OrderRecord: rec,
			Timestamps:  make(map[string]*time.Time, len(present)),
		}
		for _, col := range present {
			raw, _ := rec.Order.Timestamp(col)
			if t, ok := ParseTimestamp(raw); ok {
				nr.Timestamps[col] = &t
			} else {
				nr.Timestamps[col] = nil
				unknown[col]++
			}
		}
		if ts := nr.Timestamps[n.column]; ts != nil {
			nr.Calendar = CalendarFor(*ts)
		}
		out[i] = nr
	}

	attrs := []any{
		slog.String("canonical_column", n.column),
		slog.Int("records", len(out)),
		slog.Int("unknown_dates", unknown[n.column]),
	}
	for _, col := range present {
		if col != n.column && unknown[col] > 0 {
			attrs = append(attrs, slog.Int("unknown_"+col, unknown[col]))
		}
	}
	n.logger.InfoContext(ctx, "Timestamps normalized", attrs...)

	return out, nil
}

// CalendarFor derives the calendar attributes of t. Day of week runs
// 0=Monday..6=Sunday and the week number is the ISO 8601 week.
func CalendarFor(t time.Time) *domain.Calendar {
	day := truncateDay(t)
	isoYear, isoWeek := day.ISOWeek()
	dow := (int(day.Weekday()) + 6) % 7
	return &domain.Calendar{
		Date:      day,
		Month:     int(day.Month()),
		ISOYear:   isoYear,
		ISOWeek:   isoWeek,
		DayOfWeek: dow,
		Weekend:   dow >= 5,
	}
}
