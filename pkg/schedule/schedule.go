// Package schedule summarises weekly work schedules into human-readable
// descriptions and hour totals. Everything here is pure: the same entries
// always produce the same summary.
package schedule

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const clockLayout = "15:04"

// Entry is one weekday row of a work schedule.
type Entry struct {
	Day          string  `json:"day"`
	Checked      bool    `json:"checked"`
	Start        string  `json:"start"`
	End          string  `json:"end"`
	BreakMinutes float64 `json:"breakMinutes"`
}

// Summary is the rendered outcome: one line per shift group, one line per
// break clause, and the weekly hour total.
type Summary struct {
	Lines      []string `json:"lines"`
	BreakLines []string `json:"breakLines,omitempty"`
	TotalHours float64  `json:"totalHours"`
}

// Text joins the shift and break lines for single-line display.
func (s Summary) Text() string {
	parts := make([]string, 0, len(s.Lines)+len(s.BreakLines))
	parts = append(parts, s.Lines...)
	parts = append(parts, s.BreakLines...)
	return strings.Join(parts, "; ")
}

var weekdayOrder = map[string]int{
	"monday":    0,
	"tuesday":   1,
	"wednesday": 2,
	"thursday":  3,
	"friday":    4,
	"saturday":  5,
	"sunday":    6,
}

// Summarize groups active days by identical start and end times. A group
// spanning consecutive weekdays reads "Monday to Friday, from 09h00 to
// 17h00"; otherwise its days are enumerated ("Monday and Wednesday, from
// 09h00 to 17h00"). Days with a positive break are grouped by break length
// into BreakLines: one combined sentence when every break shares a length,
// one clause per length naming the affected days otherwise.
func Summarize(entries []Entry) Summary {
	ordered := sortedActive(entries)
	return Summary{
		Lines:      shiftLines(ordered),
		BreakLines: breakLines(ordered),
		TotalHours: TotalHours(entries),
	}
}

// TotalHours sums the hours of every checked entry, rounded to two decimals.
func TotalHours(entries []Entry) float64 {
	total := 0.0
	for _, entry := range entries {
		total += EntryHours(entry)
	}
	return round2(total)
}

// EntryHours computes the working hours of a single entry: the span between
// start and end minus the break, floored at zero. Unchecked days count as
// zero. Unparsable times also count as zero rather than poisoning the total.
func EntryHours(entry Entry) float64 {
	if !entry.Checked {
		return 0
	}
	start, err := time.Parse(clockLayout, entry.Start)
	if err != nil {
		return 0
	}
	end, err := time.Parse(clockLayout, entry.End)
	if err != nil {
		return 0
	}

	minutes := end.Sub(start).Minutes() - entry.BreakMinutes
	if minutes <= 0 {
		return 0
	}
	return round2(minutes / 60)
}

// sortedActive keeps checked days with a known weekday and positive hours,
// sorted into canonical weekday order regardless of input order.
func sortedActive(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.Checked && weekdayIndex(entry.Day) >= 0 && EntryHours(entry) > 0 {
			out = append(out, entry)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && weekdayIndex(out[j].Day) < weekdayIndex(out[j-1].Day); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// shiftLines groups days sharing a (start, end) pair, ordered by each
// group's earliest day.
func shiftLines(ordered []Entry) []string {
	type shift struct{ start, end string }
	var keys []shift
	groups := make(map[shift][]Entry)
	for _, entry := range ordered {
		key := shift{entry.Start, entry.End}
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], entry)
	}

	var lines []string
	for _, key := range keys {
		group := groups[key]
		span := enumerateDays(group)
		if len(group) > 1 && consecutiveRun(group) {
			span = fmt.Sprintf("%s to %s", displayDay(group[0].Day), displayDay(group[len(group)-1].Day))
		}
		lines = append(lines, fmt.Sprintf("%s, from %s to %s", span, displayClock(key.start), displayClock(key.end)))
	}
	return lines
}

// breakLines groups days with a positive break by break length. One distinct
// length yields a single combined sentence; several yield one clause per
// length naming the days it applies to.
func breakLines(ordered []Entry) []string {
	var lengths []float64
	groups := make(map[float64][]Entry)
	for _, entry := range ordered {
		if entry.BreakMinutes <= 0 {
			continue
		}
		if _, seen := groups[entry.BreakMinutes]; !seen {
			lengths = append(lengths, entry.BreakMinutes)
		}
		groups[entry.BreakMinutes] = append(groups[entry.BreakMinutes], entry)
	}

	if len(lengths) == 0 {
		return nil
	}
	if len(lengths) == 1 {
		return []string{fmt.Sprintf("%s minutes of break", displayMinutes(lengths[0]))}
	}

	lines := make([]string, 0, len(lengths))
	for _, length := range lengths {
		lines = append(lines, fmt.Sprintf("%s minutes of break on %s", displayMinutes(length), enumerateDays(groups[length])))
	}
	return lines
}

func consecutiveRun(group []Entry) bool {
	for i := 1; i < len(group); i++ {
		if weekdayIndex(group[i].Day) != weekdayIndex(group[i-1].Day)+1 {
			return false
		}
	}
	return true
}

// enumerateDays joins day names with commas and "and" before the last.
func enumerateDays(group []Entry) string {
	names := make([]string, len(group))
	for i, entry := range group {
		names[i] = displayDay(entry.Day)
	}
	if len(names) == 1 {
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}

func weekdayIndex(day string) int {
	idx, ok := weekdayOrder[strings.ToLower(strings.TrimSpace(day))]
	if !ok {
		return -1
	}
	return idx
}

// displayClock renders "09:00" as "09h00".
func displayClock(value string) string {
	parsed, err := time.Parse(clockLayout, value)
	if err != nil {
		return value
	}
	return parsed.Format("15h04")
}

func displayDay(day string) string {
	trimmed := strings.TrimSpace(day)
	if trimmed == "" {
		return trimmed
	}
	return strings.ToUpper(trimmed[:1]) + strings.ToLower(trimmed[1:])
}

func displayMinutes(minutes float64) string {
	return strconv.FormatFloat(minutes, 'f', -1, 64)
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
