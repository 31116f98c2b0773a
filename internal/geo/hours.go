package geo

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/vanhalal/halal-cli/internal/model"
)

// HourRange is one open interval in minutes since midnight. End is
// inclusive: a diner arriving at the posted closing minute is still served.
type HourRange struct {
	StartMin int
	EndMin   int
}

// Contains reports whether minute-of-day t falls inside the range,
// handling ranges that wrap past midnight.
func (r HourRange) Contains(t int) bool {
	if r.StartMin <= r.EndMin {
		return t >= r.StartMin && t <= r.EndMin
	}
	return t >= r.StartMin || t <= r.EndMin
}

// IsOpenNow evaluates a restaurant's posted hours at now in the given
// timezone. Closed flags short-circuit; a day with no entry, or an entry of
// "Closed", is closed; unparseable hours are treated as closed rather than
// guessed open.
func IsOpenNow(r model.Restaurant, now time.Time, tz *time.Location) bool {
	if r.PermanentlyClosed || r.TemporarilyClosed {
		return false
	}
	if tz != nil {
		now = now.In(tz)
	}

	weekday := now.Weekday().String()
	minute := now.Hour()*60 + now.Minute()

	for _, dh := range r.OpeningHours {
		if !strings.EqualFold(strings.TrimSpace(dh.Day), weekday) {
			continue
		}
		ranges, err := ParseDayHours(dh.Hours)
		if err != nil {
			return false
		}
		for _, rng := range ranges {
			if rng.Contains(minute) {
				return true
			}
		}
		return false
	}
	return false
}

// ParseDayHours parses one day's posted hours: comma-separated 12-hour
// ranges ("11:30am - 2:00pm, 5:00 - 9:00pm"), "24 hours", or "Closed".
// A bare start clock inherits the end clock's meridiem, matching how
// restaurants actually print their hours.
func ParseDayHours(s string) ([]HourRange, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" || strings.EqualFold(cleaned, "closed") {
		return nil, nil
	}
	if strings.EqualFold(cleaned, "24 hours") || strings.EqualFold(cleaned, "open 24 hours") {
		return []HourRange{{StartMin: 0, EndMin: 24*60 - 1}}, nil
	}

	var out []HourRange
	for _, part := range strings.Split(cleaned, ",") {
		rng, err := parseRange(part)
		if err != nil {
			return nil, err
		}
		out = append(out, rng)
	}
	return out, nil
}

func parseRange(s string) (HourRange, error) {
	halves := splitRange(s)
	if len(halves) != 2 {
		return HourRange{}, eris.Errorf("geo: malformed hours range %q", strings.TrimSpace(s))
	}

	startClock, startMer, err := parseClock(halves[0])
	if err != nil {
		return HourRange{}, err
	}
	endClock, endMer, err := parseClock(halves[1])
	if err != nil {
		return HourRange{}, err
	}

	// Meridiem inheritance: "5:00 - 9:00pm" means 5pm, not 5am.
	if startMer == "" {
		startMer = endMer
	}
	if endMer == "" {
		endMer = startMer
	}
	if startMer == "" {
		return HourRange{}, eris.Errorf("geo: hours range %q has no meridiem", strings.TrimSpace(s))
	}

	return HourRange{
		StartMin: toMinutes(startClock, startMer),
		EndMin:   toMinutes(endClock, endMer),
	}, nil
}

// splitRange splits on the dash between two clock readings, tolerating
// hyphen, en dash and "to".
func splitRange(s string) []string {
	for _, sep := range []string{"-", "–", "—", " to "} {
		if parts := strings.SplitN(s, sep, 2); len(parts) == 2 {
			return []string{strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])}
		}
	}
	return []string{strings.TrimSpace(s)}
}

type clock struct {
	hour   int
	minute int
}

// parseClock reads "11:30am", "11am", or "5:00" and returns the clock plus
// its meridiem ("am", "pm", or "" when bare).
func parseClock(s string) (clock, string, error) {
	raw := strings.ToLower(strings.TrimSpace(s))
	raw = strings.ReplaceAll(raw, " ", "")
	raw = strings.ReplaceAll(raw, ".", "")

	meridiem := ""
	if strings.HasSuffix(raw, "am") {
		meridiem = "am"
		raw = strings.TrimSuffix(raw, "am")
	} else if strings.HasSuffix(raw, "pm") {
		meridiem = "pm"
		raw = strings.TrimSuffix(raw, "pm")
	}

	hourStr, minStr, hasMinutes := strings.Cut(raw, ":")
	hour, err := strconv.Atoi(hourStr)
	if err != nil || hour < 1 || hour > 12 {
		return clock{}, "", eris.Errorf("geo: bad clock reading %q", strings.TrimSpace(s))
	}
	minute := 0
	if hasMinutes {
		minute, err = strconv.Atoi(minStr)
		if err != nil || minute < 0 || minute > 59 {
			return clock{}, "", eris.Errorf("geo: bad clock reading %q", strings.TrimSpace(s))
		}
	}
	return clock{hour: hour, minute: minute}, meridiem, nil
}

func toMinutes(c clock, meridiem string) int {
	h := c.hour % 12
	if meridiem == "pm" {
		h += 12
	}
	return h*60 + c.minute
}
