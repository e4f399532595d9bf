package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minerva/erp/internal/domain/calendar"
	"github.com/minerva/erp/internal/infrastructure/persistence"
)

const (
	selectAgendamentos = "SELECT * FROM `agendamentos` WHERE `inicio` < ? AND `fim` > ? ORDER BY `inicio` ASC LIMIT 200"
	selectBloqueios    = "SELECT * FROM `agenda_bloqueios` WHERE `data` >= ? AND `data` < ? LIMIT 200"
)

var agendamentoColumns = []string{"id", "titulo", "colaborador_id", "os_id", "inicio", "fim", "status"}

func utc(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func newTestCalendarService(t *testing.T) (*CalendarService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewCalendarService(persistence.NewRecordRepository(db), calendar.Config{
		StartHour: 8,
		EndHour:   18,
		Capacity:  1,
		Location:  time.UTC,
	})
	svc.now = func() time.Time { return utc(2025, 12, 16, 10) }
	return svc, mock
}

func TestCalendarService_Week(t *testing.T) {
	svc, mock := newTestCalendarService(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectAgendamentos)).
		WithArgs("2025-12-22 00:00:00", "2025-12-15 00:00:00").
		WillReturnRows(sqlmock.NewRows(agendamentoColumns).
			AddRow("ag-1", "Vistoria", "col-1", "os-1", utc(2025, 12, 17, 14), utc(2025, 12, 17, 15), "confirmado").
			AddRow("ag-2", "Cancelada", "col-1", nil, utc(2025, 12, 17, 9), utc(2025, 12, 17, 10), "cancelado"))
	mock.ExpectQuery(regexp.QuoteMeta(selectBloqueios)).
		WithArgs("2025-12-15", "2025-12-22").
		WillReturnRows(sqlmock.NewRows([]string{"id", "data", "motivo"}).
			AddRow("bl-1", []byte("2025-12-19"), "Manutenção"))

	view, err := svc.Week(context.Background(), utc(2025, 12, 15, 13), "")
	require.NoError(t, err)

	require.Len(t, view.Days, 7)
	assert.Equal(t, "2025-12-15", view.Inicio)
	assert.Equal(t, "2025-12-15", view.Days[0])
	require.Len(t, view.Hours, 10)
	require.Len(t, view.Rows, 10)

	booked := view.Rows[14-8][2]
	assert.Equal(t, "2025-12-17-14", booked.Key)
	assert.Equal(t, calendar.StateLotado, booked.State)
	require.Len(t, booked.Events, 1)
	assert.Equal(t, "Vistoria", booked.Events[0].Titulo)

	assert.Equal(t, calendar.StateLivre, view.Rows[9-8][2].State, "cancelled events free the slot")
	assert.Equal(t, calendar.StatePassado, view.Rows[0][0].State)
	assert.Equal(t, calendar.StateBloqueado, view.Rows[0][4].State)
	assert.Equal(t, "Manutenção", view.Rows[0][4].Motivo)
	assert.True(t, view.Rows[5][1].IsToday)
	assert.Equal(t, calendar.StateLivre, view.Rows[5][1].State)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarService_DayFiltersByColaborador(t *testing.T) {
	svc, mock := newTestCalendarService(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `agendamentos` WHERE `inicio` < ? AND `fim` > ? AND `colaborador_id` = ? ORDER BY `inicio` ASC LIMIT 200")).
		WithArgs("2025-12-18 00:00:00", "2025-12-17 00:00:00", "col-1").
		WillReturnRows(sqlmock.NewRows(agendamentoColumns).
			AddRow("ag-1", "Vistoria", "col-1", "os-1", utc(2025, 12, 17, 14), utc(2025, 12, 17, 15), "confirmado"))
	mock.ExpectQuery(regexp.QuoteMeta(selectBloqueios)).
		WithArgs("2025-12-17", "2025-12-18").
		WillReturnRows(sqlmock.NewRows([]string{"id", "data", "motivo"}))

	day, err := svc.Day(context.Background(), utc(2025, 12, 17, 0), "col-1")
	require.NoError(t, err)
	assert.Equal(t, "2025-12-17", day.Date)
	require.Len(t, day.Events, 1)
	assert.Len(t, day.FreeHours, 9)
	assert.NotContains(t, day.FreeHours, 14)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarService_Month(t *testing.T) {
	svc, mock := newTestCalendarService(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectAgendamentos)).
		WithArgs("2026-01-08 00:00:00", "2025-11-24 00:00:00").
		WillReturnRows(sqlmock.NewRows(agendamentoColumns))
	mock.ExpectQuery(regexp.QuoteMeta(selectBloqueios)).
		WithArgs("2025-11-24", "2026-01-08").
		WillReturnRows(sqlmock.NewRows([]string{"id", "data", "motivo"}))

	view, err := svc.Month(context.Background(), 2025, time.December, "")
	require.NoError(t, err)
	assert.Equal(t, 12, view.Month)
	require.NotEmpty(t, view.Weeks)
	assert.Equal(t, "2025-11-30", view.Weeks[0][0].Date)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = svc.Month(context.Background(), 2025, 13, "")
	assert.Error(t, err)
}
