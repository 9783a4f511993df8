package calendar

import (
	"net/url"
	"strings"
)

const googleDateFormat = "20060102T150405"

// GoogleURL builds the calendar template deep link. The dates
// parameter carries local wall-clock time with no zone suffix, which
// renders correctly for the JST audience this bot serves.
func GoogleURL(ev *Event) string {
	title := ev.Title
	if title == "" {
		title = "予定"
	}

	var b strings.Builder
	b.WriteString("https://www.google.com/calendar/render?action=TEMPLATE")
	b.WriteString("&text=" + url.QueryEscape(title))
	b.WriteString("&details=" + url.QueryEscape(ev.Description))
	b.WriteString("&dates=" + ev.Start.Format(googleDateFormat) + "/" + ev.End.Format(googleDateFormat))
	if ev.Location != "" {
		b.WriteString("&location=" + url.QueryEscape(ev.Location))
	}
	return b.String()
}
