package variables

import (
	"context"
	"fmt"
	"time"
)

// TimeProvider provides current time and date variables.
// Useful for prompts with temporal context, like a {current_date}
// placeholder in a news-summary template.
type TimeProvider struct {
	// Format is the time format string for the current_time variable.
	// Defaults to time.RFC3339 if empty.
	Format string

	// Location specifies the timezone. Defaults to UTC if nil.
	Location *time.Location

	// nowFunc allows injecting a custom time source for testing.
	nowFunc func() time.Time
}

// NewTimeProvider creates a TimeProvider with default settings (UTC, RFC3339).
func NewTimeProvider() *TimeProvider {
	return &TimeProvider{}
}

// Name returns the provider identifier.
func (p *TimeProvider) Name() string {
	return "time"
}

// Provide returns time-related variables:
//   - current_time: full timestamp in the configured format
//   - current_date: date in YYYY-MM-DD format
//   - current_year: four-digit year
//   - current_weekday: full weekday name (e.g., "Monday")
func (p *TimeProvider) Provide(ctx context.Context) (map[string]string, error) {
	now := p.now()
	if p.Location != nil {
		now = now.In(p.Location)
	} else {
		now = now.UTC()
	}

	format := p.Format
	if format == "" {
		format = time.RFC3339
	}

	return map[string]string{
		"current_time":    now.Format(format),
		"current_date":    now.Format("2006-01-02"),
		"current_year":    fmt.Sprintf("%d", now.Year()),
		"current_weekday": now.Weekday().String(),
	}, nil
}

func (p *TimeProvider) now() time.Time {
	if p.nowFunc != nil {
		return p.nowFunc()
	}
	return time.Now()
}
