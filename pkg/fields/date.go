package fields

import (
	"strconv"
	"time"

	"github.com/goliatone/go-jsform/pkg/model"
)

const dateLayout = "2006-01-02"

// EffectiveMinDate derives the earliest selectable date for a date field. It
// combines the schema's minDate with the meta "mot" bound, which expresses a
// minimum onboarding time in business days counted from today. The later of
// the two wins; a non-numeric mot falls back to the schema bound alone.
func EffectiveMinDate(field model.Field, now time.Time) (time.Time, bool) {
	var bound time.Time
	found := false

	if rule, ok := field.Rule(model.RuleMinDate); ok {
		if parsed, err := time.Parse(dateLayout, rule.Params["value"]); err == nil {
			bound = parsed
			found = true
		}
	}

	if days, ok := motDays(field.Meta); ok {
		motBound := AddBusinessDays(now, days)
		motBound = time.Date(motBound.Year(), motBound.Month(), motBound.Day(), 0, 0, 0, 0, time.UTC)
		if !found || motBound.After(bound) {
			bound = motBound
			found = true
		}
	}

	return bound, found
}

func motDays(meta map[string]any) (int, bool) {
	if meta == nil {
		return 0, false
	}
	switch v := meta["mot"].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// AddBusinessDays advances the date by the given number of weekdays,
// skipping Saturdays and Sundays.
func AddBusinessDays(from time.Time, days int) time.Time {
	out := from
	for days > 0 {
		out = out.AddDate(0, 0, 1)
		if wd := out.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days--
	}
	return out
}
