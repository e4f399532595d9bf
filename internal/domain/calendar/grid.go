package calendar

import (
	"math"
	"time"
)

// DaysVisible is the width of the week grid.
const DaysVisible = 7

// Cell is one hour slot of the week grid. Cells are stable: the same pointer
// is returned for a date as long as it stays in the window.
type Cell struct {
	Key      string    `json:"key"`
	Date     string    `json:"date"`
	Hour     int       `json:"hour"`
	State    CellState `json:"state"`
	IsToday  bool      `json:"is_today"`
	Capacity int       `json:"capacity"`
	Motivo   string    `json:"motivo,omitempty"`
	Events   []Event   `json:"events"`
}

// Grid is a scrollable 7-day window over an Agenda.
type Grid struct {
	agenda *Agenda
	start  time.Time
	cells  map[string]*Cell
}

// NewGrid opens a window whose first day contains start.
func NewGrid(agenda *Agenda, start time.Time) *Grid {
	g := &Grid{
		agenda: agenda,
		start:  agenda.dayStart(start),
		cells:  make(map[string]*Cell),
	}
	g.rebuild()
	return g
}

func (g *Grid) Start() time.Time { return g.start }

// Days lists the visible days.
func (g *Grid) Days() []time.Time {
	days := make([]time.Time, DaysVisible)
	for i := range days {
		days[i] = g.start.AddDate(0, 0, i)
	}
	return days
}

// Cell resolves the slot for date at hour. ok is false outside the window
// or the bookable hours.
func (g *Grid) Cell(date time.Time, hour int) (*Cell, bool) {
	day := g.agenda.dayStart(date)
	offset := int(math.Round(day.Sub(g.start).Hours() / 24))
	if offset < 0 || offset >= DaysVisible {
		return nil, false
	}
	cell, ok := g.cells[CellKey(day, hour)]
	return cell, ok
}

// Lookup resolves a cell by key.
func (g *Grid) Lookup(key string) (*Cell, bool) {
	cell, ok := g.cells[key]
	return cell, ok
}

// Scroll moves the window by days (negative scrolls back).
func (g *Grid) Scroll(days int) {
	g.start = g.start.AddDate(0, 0, days)
	g.rebuild()
}

// Refresh swaps the agenda, updating cells in place.
func (g *Grid) Refresh(agenda *Agenda) {
	g.agenda = agenda
	g.rebuild()
}

// Rows returns cells grouped by hour, one entry per visible day.
func (g *Grid) Rows() [][]*Cell {
	hours := g.agenda.Hours()
	days := g.Days()
	rows := make([][]*Cell, 0, len(hours))
	for _, h := range hours {
		row := make([]*Cell, 0, len(days))
		for _, d := range days {
			row = append(row, g.cells[CellKey(d, h)])
		}
		rows = append(rows, row)
	}
	return rows
}

func (g *Grid) rebuild() {
	visible := make(map[string]*Cell, DaysVisible*len(g.agenda.Hours()))
	for _, day := range g.Days() {
		motivo, _ := g.agenda.blockedReason(day)
		today := g.agenda.isToday(day)
		for _, h := range g.agenda.Hours() {
			key := CellKey(day, h)
			cell, ok := g.cells[key]
			if !ok {
				cell = &Cell{Key: key, Date: day.Format(dateLayout), Hour: h}
			}
			state, events := g.agenda.slot(day, h)
			cell.State = state
			cell.Events = events
			cell.IsToday = today
			cell.Capacity = g.agenda.cfg.Capacity
			cell.Motivo = motivo
			visible[key] = cell
		}
	}
	g.cells = visible
}
