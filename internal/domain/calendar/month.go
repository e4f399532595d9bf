package calendar

import (
	"time"
)

// DaySummary is one square of the month view.
type DaySummary struct {
	Date    string    `json:"date"`
	InMonth bool      `json:"in_month"`
	IsToday bool      `json:"is_today"`
	Count   int       `json:"count"`
	State   CellState `json:"state"`
	Motivo  string    `json:"motivo,omitempty"`
}

// MonthView is a month padded to whole Sunday-first weeks.
type MonthView struct {
	Year  int            `json:"year"`
	Month int            `json:"month"`
	Weeks [][]DaySummary `json:"weeks"`
}

// DayDetail lists a day's events and free hours.
type DayDetail struct {
	Date      string    `json:"date"`
	State     CellState `json:"state"`
	IsToday   bool      `json:"is_today"`
	Motivo    string    `json:"motivo,omitempty"`
	Events    []Event   `json:"events"`
	FreeHours []int     `json:"free_hours"`
}

// Month summarises every day of the month.
func (a *Agenda) Month(year int, month time.Month) MonthView {
	first := time.Date(year, month, 1, 0, 0, 0, 0, a.cfg.Location)
	last := first.AddDate(0, 1, -1)

	from := first.AddDate(0, 0, -int(first.Weekday()))
	to := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))

	view := MonthView{Year: year, Month: int(month)}
	var week []DaySummary
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		motivo, _ := a.blockedReason(day)
		week = append(week, DaySummary{
			Date:    day.Format(dateLayout),
			InMonth: day.Month() == month,
			IsToday: a.isToday(day),
			Count:   len(a.eventsBetween(day, day.AddDate(0, 0, 1))),
			State:   a.dayState(day),
			Motivo:  motivo,
		})
		if len(week) == 7 {
			view.Weeks = append(view.Weeks, week)
			week = nil
		}
	}
	return view
}

// Day returns the detail of a single day.
func (a *Agenda) Day(date time.Time) DayDetail {
	day := a.dayStart(date)
	motivo, blocked := a.blockedReason(day)

	detail := DayDetail{
		Date:      day.Format(dateLayout),
		State:     a.dayState(day),
		IsToday:   a.isToday(day),
		Motivo:    motivo,
		Events:    a.eventsBetween(day, day.AddDate(0, 0, 1)),
		FreeHours: []int{},
	}
	if detail.Events == nil {
		detail.Events = []Event{}
	}
	if blocked {
		return detail
	}
	for _, h := range a.Hours() {
		state, _ := a.slot(day, h)
		if state == StateLivre || state == StateParcial {
			detail.FreeHours = append(detail.FreeHours, h)
		}
	}
	return detail
}
