package services

import (
	"context"
	"fmt"
	"time"

	"github.com/minerva/erp/internal/domain/calendar"
	"github.com/minerva/erp/internal/infrastructure/persistence"
	"github.com/minerva/erp/pkg/constants"
	"github.com/minerva/erp/pkg/models"
)

const sqlDateTime = "2006-01-02 15:04:05"

// WeekView is the 7-day grid returned to the client.
type WeekView struct {
	Inicio string             `json:"inicio"`
	Days   []string           `json:"days"`
	Hours  []int              `json:"hours"`
	Rows   [][]*calendar.Cell `json:"rows"`
}

// CalendarService builds agenda views from agendamentos and blocked days.
type CalendarService struct {
	records *persistence.RecordRepository
	cfg     calendar.Config
	now     func() time.Time
}

// NewCalendarService creates a new CalendarService
func NewCalendarService(records *persistence.RecordRepository, cfg calendar.Config) *CalendarService {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &CalendarService{records: records, cfg: cfg, now: time.Now}
}

// Location is the timezone dates are interpreted in.
func (s *CalendarService) Location() *time.Location {
	return s.cfg.Location
}

// Week returns the grid for the 7 days starting at inicio. colaboradorID
// narrows the agenda to one collaborator when set.
func (s *CalendarService) Week(ctx context.Context, inicio time.Time, colaboradorID string) (*WeekView, error) {
	from := startOfDay(inicio, s.cfg.Location)
	agenda, err := s.agenda(ctx, from, from.AddDate(0, 0, calendar.DaysVisible), colaboradorID)
	if err != nil {
		return nil, err
	}

	grid := calendar.NewGrid(agenda, from)
	view := &WeekView{
		Inicio: from.Format("2006-01-02"),
		Hours:  agenda.Hours(),
		Rows:   grid.Rows(),
	}
	for _, d := range grid.Days() {
		view.Days = append(view.Days, d.Format("2006-01-02"))
	}
	return view, nil
}

// Month summarises a month padded to whole weeks.
func (s *CalendarService) Month(ctx context.Context, year int, month time.Month, colaboradorID string) (*calendar.MonthView, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("invalid month %d", month)
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, s.cfg.Location)
	// padding weeks reach at most 6 days outside the month
	agenda, err := s.agenda(ctx, first.AddDate(0, 0, -7), first.AddDate(0, 1, 7), colaboradorID)
	if err != nil {
		return nil, err
	}
	view := agenda.Month(year, month)
	return &view, nil
}

// Day returns the detail of one day.
func (s *CalendarService) Day(ctx context.Context, date time.Time, colaboradorID string) (*calendar.DayDetail, error) {
	from := startOfDay(date, s.cfg.Location)
	agenda, err := s.agenda(ctx, from, from.AddDate(0, 0, 1), colaboradorID)
	if err != nil {
		return nil, err
	}
	detail := agenda.Day(from)
	return &detail, nil
}

func (s *CalendarService) agenda(ctx context.Context, from, to time.Time, colaboradorID string) (*calendar.Agenda, error) {
	filters := []string{
		fmt.Sprintf("%s < %s", constants.FieldAgendamentoInicio, to.Format(sqlDateTime)),
		fmt.Sprintf("%s > %s", constants.FieldAgendamentoFim, from.Format(sqlDateTime)),
	}
	if colaboradorID != "" {
		filters = append(filters, fmt.Sprintf("%s = %s", constants.FieldAgendamentoColaboradorID, colaboradorID))
	}

	rows, err := s.records.List(ctx, constants.TableAgendamento, models.QueryRequest{
		Filters:   filters,
		SortField: constants.FieldAgendamentoInicio,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load agendamentos: %w", err)
	}
	events := make([]calendar.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, calendar.Event{
			ID:            r.GetString(constants.FieldID),
			Titulo:        r.GetString(constants.FieldAgendamentoTitulo),
			ColaboradorID: r.GetString(constants.FieldAgendamentoColaboradorID),
			OSID:          r.GetString(constants.FieldAgendamentoOSID),
			Inicio:        r.GetTime(constants.FieldAgendamentoInicio).In(s.cfg.Location),
			Fim:           r.GetTime(constants.FieldAgendamentoFim).In(s.cfg.Location),
			Status:        r.GetString(constants.FieldAgendamentoStatus),
		})
	}

	blocked, err := s.records.List(ctx, constants.TableBloqueio, models.QueryRequest{
		Filters: []string{
			fmt.Sprintf("%s >= %s", constants.FieldBloqueioData, from.Format("2006-01-02")),
			fmt.Sprintf("%s < %s", constants.FieldBloqueioData, to.Format("2006-01-02")),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load bloqueios: %w", err)
	}
	bloqueios := make([]calendar.Bloqueio, 0, len(blocked))
	for _, r := range blocked {
		bloqueios = append(bloqueios, calendar.Bloqueio{
			Data:   dateOnly(r, constants.FieldBloqueioData, s.cfg.Location),
			Motivo: r.GetString(constants.FieldBloqueioMotivo),
		})
	}

	return calendar.NewAgenda(s.cfg, events, bloqueios).WithClock(s.now), nil
}

// dateOnly reads a DATE column as midnight in loc, whatever zone the driver used.
func dateOnly(r models.SObject, field string, loc *time.Location) time.Time {
	if t := r.GetTime(field); !t.IsZero() {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	}
	t, _ := time.ParseInLocation("2006-01-02", r.GetString(field), loc)
	return t
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
