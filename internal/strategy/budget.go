package strategy

import "time"

// Frequency selects the calendar window used for spend bucketing.
type Frequency string

const (
	FreqDay  Frequency = "day"
	FreqWeek Frequency = "week"
)

// BudgetTracker limits order sizing by time-windowed spend caps. A nil
// cap means the window is unconstrained. Shift moves every bucket
// boundary by a fixed offset, so a "day" can reset at any time of day
// and a "week" on any weekday.
type BudgetTracker struct {
	DailyBudget  *float64
	WeeklyBudget *float64
	Shift        time.Duration

	now func() time.Time
}

func NewBudgetTracker(daily, weekly *float64, shift time.Duration) *BudgetTracker {
	return &BudgetTracker{
		DailyBudget:  daily,
		WeeklyBudget: weekly,
		Shift:        shift,
		now:          time.Now,
	}
}

// bucketStart truncates a shifted timestamp to the start of its calendar
// bucket in UTC. Weeks start on Monday, matching the Monday..Sunday
// partition of the original bookkeeping.
func bucketStart(t time.Time, freq Frequency) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if freq == FreqDay {
		return day
	}
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// SpentInWindow sums the entry cost of active trades whose shifted entry
// time falls in the bucket containing shifted "now". The now-bucket is
// seeded with a zero-cost marker first, so an empty or absent bucket
// reads as exactly 0 instead of a missing key.
func (b *BudgetTracker) SpentInWindow(trades []*Trade, freq Frequency) float64 {
	nowBucket := bucketStart(b.now().Add(b.Shift), freq)

	spent := map[time.Time]float64{nowBucket: 0}
	for _, t := range trades {
		bucket := bucketStart(t.EntryTime.Add(b.Shift), freq)
		spent[bucket] += t.EntryCost
	}
	return spent[nowBucket]
}

// BudgetLeft narrows the host-reported free budget by whichever window
// caps are configured. The result is never negative; with no caps the
// free budget passes through unchanged.
func (b *BudgetTracker) BudgetLeft(status *Status) float64 {
	left := status.Budget.Free

	if b.DailyBudget != nil {
		dayLeft := *b.DailyBudget - b.SpentInWindow(status.ActiveTrades, FreqDay)
		left = min(left, dayLeft)
	}
	if b.WeeklyBudget != nil {
		weekLeft := *b.WeeklyBudget - b.SpentInWindow(status.ActiveTrades, FreqWeek)
		left = min(left, weekLeft)
	}

	if left < 0 {
		left = 0
	}
	return left
}
