package parsing

import (
	"fmt"
	"regexp"
	"time"
)

// WindowKind identifies how a window was phrased.
type WindowKind int

const (
	WindowToday WindowKind = iota + 1
	WindowYesterday
	WindowCurrentWeek
	WindowPreviousWeek
	WindowCurrentMonth
	WindowPreviousMonth
	WindowNamedMonth
)

// Window is a date filter resolved from a question.
// Start/End form a half-open interval of civil dates; a named month matches that month in any year.
type Window struct {
	Kind  WindowKind
	Label string
	Start time.Time
	End   time.Time
	Month time.Month
}

// Contains reports whether the civil date d falls in the window.
func (w Window) Contains(d time.Time) bool {
	if w.Kind == WindowNamedMonth {
		return d.Month() == w.Month
	}
	return !d.Before(w.Start) && d.Before(w.End)
}

// monthNames is keyed by normalized (accent-free) Portuguese month names.
var monthNames = []struct {
	name  string
	month time.Month
}{
	{"janeiro", time.January},
	{"fevereiro", time.February},
	{"marco", time.March},
	{"abril", time.April},
	{"maio", time.May},
	{"junho", time.June},
	{"julho", time.July},
	{"agosto", time.August},
	{"setembro", time.September},
	{"outubro", time.October},
	{"novembro", time.November},
	{"dezembro", time.December},
}

// MonthName returns the Portuguese name of m as written in summaries.
func MonthName(m time.Month) string {
	if m == time.March {
		return "março"
	}
	return monthNames[m-1].name
}

var (
	monthWordPatterns = buildMonthPatterns()
	currentMonthRe    = regexp.MustCompile(`\b(mes atual|este mes|neste mes|esse mes|nesse mes)\b`)
	previousMonthRe   = regexp.MustCompile(`\b(mes anterior|mes passado|ultimo mes)\b`)
	todayRe           = regexp.MustCompile(`\bhoje\b`)
	yesterdayRe       = regexp.MustCompile(`\bontem\b`)
	currentWeekRe     = regexp.MustCompile(`\b(semana atual|esta semana|nesta semana|essa semana|nessa semana)\b`)
	previousWeekRe    = regexp.MustCompile(`\b(semana anterior|semana passada|ultima semana)\b`)
)

func buildMonthPatterns() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(monthNames))
	for i, m := range monthNames {
		out[i] = regexp.MustCompile(`\b` + m.name + `\b`)
	}
	return out
}

// ResolveWindow finds a date window in normalized question text, relative to now.
// now is interpreted in its own location; the returned bounds are UTC civil dates.
func ResolveWindow(normalized string, now time.Time) (Window, bool) {
	today := CivilDate(now)

	for i, re := range monthWordPatterns {
		if re.MatchString(normalized) {
			m := monthNames[i].month
			return Window{
				Kind:  WindowNamedMonth,
				Label: fmt.Sprintf("No mês de %s", MonthName(m)),
				Month: m,
			}, true
		}
	}

	firstOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	monday := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))

	switch {
	case currentMonthRe.MatchString(normalized):
		return Window{Kind: WindowCurrentMonth, Label: "No mês atual", Start: firstOfMonth, End: firstOfMonth.AddDate(0, 1, 0)}, true
	case previousMonthRe.MatchString(normalized):
		return Window{Kind: WindowPreviousMonth, Label: "No mês anterior", Start: firstOfMonth.AddDate(0, -1, 0), End: firstOfMonth}, true
	case todayRe.MatchString(normalized):
		return Window{Kind: WindowToday, Label: "Hoje", Start: today, End: today.AddDate(0, 0, 1)}, true
	case yesterdayRe.MatchString(normalized):
		return Window{Kind: WindowYesterday, Label: "Ontem", Start: today.AddDate(0, 0, -1), End: today}, true
	case currentWeekRe.MatchString(normalized):
		return Window{Kind: WindowCurrentWeek, Label: "Na semana atual", Start: monday, End: today.AddDate(0, 0, 1)}, true
	case previousWeekRe.MatchString(normalized):
		return Window{Kind: WindowPreviousWeek, Label: "Na semana anterior", Start: monday.AddDate(0, 0, -7), End: monday}, true
	}

	return Window{}, false
}
