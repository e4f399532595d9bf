package calendar

import (
	"fmt"
	"sort"
	"time"
)

// CellState is the availability of a slot or day
type CellState string

const (
	StateLivre     CellState = "livre"
	StateParcial   CellState = "parcial"
	StateLotado    CellState = "lotado"
	StateBloqueado CellState = "bloqueado"
	StatePassado   CellState = "passado"
)

const statusCancelado = "cancelado"

const dateLayout = "2006-01-02"

// Event is a scheduled appointment
type Event struct {
	ID            string    `json:"id"`
	Titulo        string    `json:"titulo"`
	ColaboradorID string    `json:"colaborador_id,omitempty"`
	OSID          string    `json:"os_id,omitempty"`
	Inicio        time.Time `json:"inicio"`
	Fim           time.Time `json:"fim"`
	Status        string    `json:"status"`
}

func (e Event) end() time.Time {
	if e.Fim.After(e.Inicio) {
		return e.Fim
	}
	return e.Inicio.Add(time.Hour)
}

// Bloqueio marks a whole day unavailable (holiday, maintenance)
type Bloqueio struct {
	Data   time.Time `json:"data"`
	Motivo string    `json:"motivo"`
}

// Config describes the bookable hours of a day.
type Config struct {
	StartHour int
	EndHour   int
	Capacity  int
	Location  *time.Location
}

func (c Config) withDefaults() Config {
	if c.EndHour <= c.StartHour {
		c.StartHour, c.EndHour = 8, 18
	}
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	return c
}

// Agenda answers availability questions over a set of events and blocked days.
type Agenda struct {
	cfg     Config
	now     func() time.Time
	events  []Event
	blocked map[string]string
}

func NewAgenda(cfg Config, events []Event, bloqueios []Bloqueio) *Agenda {
	cfg = cfg.withDefaults()
	a := &Agenda{
		cfg:     cfg,
		now:     time.Now,
		blocked: make(map[string]string, len(bloqueios)),
	}
	for _, e := range events {
		if e.Status == statusCancelado {
			continue
		}
		a.events = append(a.events, e)
	}
	sort.SliceStable(a.events, func(i, j int) bool { return a.events[i].Inicio.Before(a.events[j].Inicio) })
	for _, b := range bloqueios {
		a.blocked[b.Data.In(cfg.Location).Format(dateLayout)] = b.Motivo
	}
	return a
}

// WithClock replaces the clock used to decide past slots and today.
func (a *Agenda) WithClock(now func() time.Time) *Agenda {
	a.now = now
	return a
}

func (a *Agenda) Config() Config { return a.cfg }

// Hours lists the bookable hours of a day.
func (a *Agenda) Hours() []int {
	hours := make([]int, 0, a.cfg.EndHour-a.cfg.StartHour)
	for h := a.cfg.StartHour; h < a.cfg.EndHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// CellKey formats the "YYYY-MM-DD-HH" key of a slot.
func CellKey(day time.Time, hour int) string {
	return fmt.Sprintf("%s-%02d", day.Format(dateLayout), hour)
}

func (a *Agenda) dayStart(t time.Time) time.Time {
	t = t.In(a.cfg.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, a.cfg.Location)
}

func (a *Agenda) isToday(day time.Time) bool {
	return a.dayStart(a.now()).Equal(a.dayStart(day))
}

func (a *Agenda) blockedReason(day time.Time) (string, bool) {
	motivo, ok := a.blocked[a.dayStart(day).Format(dateLayout)]
	return motivo, ok
}

func (a *Agenda) eventsBetween(from, to time.Time) []Event {
	var out []Event
	for _, e := range a.events {
		if e.Inicio.Before(to) && e.end().After(from) {
			out = append(out, e)
		}
	}
	return out
}

// slot computes the state of one hour slot.
func (a *Agenda) slot(day time.Time, hour int) (CellState, []Event) {
	day = a.dayStart(day)
	from := day.Add(time.Duration(hour) * time.Hour)
	to := from.Add(time.Hour)
	events := a.eventsBetween(from, to)

	if _, blocked := a.blockedReason(day); blocked {
		return StateBloqueado, events
	}
	if !to.After(a.now()) {
		return StatePassado, events
	}
	switch {
	case len(events) == 0:
		return StateLivre, events
	case len(events) < a.cfg.Capacity:
		return StateParcial, events
	default:
		return StateLotado, events
	}
}

// dayState summarises a day: blocked and past days first, then full when
// every slot is full, partial when anything is booked.
func (a *Agenda) dayState(day time.Time) CellState {
	day = a.dayStart(day)
	if _, blocked := a.blockedReason(day); blocked {
		return StateBloqueado
	}
	if day.Before(a.dayStart(a.now())) {
		return StatePassado
	}

	full, booked := 0, 0
	for _, h := range a.Hours() {
		state, events := a.slot(day, h)
		if len(events) > 0 {
			booked++
		}
		if state == StateLotado || state == StatePassado {
			full++
		}
	}
	switch {
	case booked == 0:
		return StateLivre
	case full == len(a.Hours()):
		return StateLotado
	default:
		return StateParcial
	}
}
