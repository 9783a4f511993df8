package calendar

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// explicit hour, with the 午後 qualifier adding 12
var hourRe = regexp.MustCompile(`(午後)?(\d{1,2})時`)

// fallback is the deterministic extractor. It always succeeds: the
// whole description becomes the title, a relative-day marker shifts
// the reference date, and a missing hour falls back to a one-hour
// slot starting an hour out.
func (p *Pipeline) fallback(desc string, ref time.Time) *Event {
	ref = ref.In(p.loc)

	day := ref
	if strings.Contains(desc, "明日") {
		day = day.AddDate(0, 0, 1)
	}

	var start, end time.Time
	if m := hourRe.FindStringSubmatch(desc); m != nil {
		hour, _ := strconv.Atoi(m[2])
		if m[1] != "" && hour < 12 {
			hour += 12
		}
		start = time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, p.loc)
		end = start.Add(time.Hour)
	} else {
		// no explicit hour: a one-hour slot an hour out, on the
		// (possibly day-shifted) reference
		start = day.Add(time.Hour)
		end = day.Add(2 * time.Hour)
	}

	return &Event{
		Title:       desc,
		Description: desc,
		Start:       start,
		End:         end,
	}
}
