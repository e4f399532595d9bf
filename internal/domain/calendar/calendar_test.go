package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func fixedNow() time.Time { return date(2025, 12, 16, 10) }

func testAgenda(capacity int) *Agenda {
	cfg := Config{StartHour: 8, EndHour: 18, Capacity: capacity, Location: time.UTC}
	events := []Event{
		{ID: "ag-1", Titulo: "Visita técnica", Inicio: date(2025, 12, 17, 14), Fim: date(2025, 12, 17, 15), Status: "confirmado"},
		{ID: "ag-2", Titulo: "Cancelada", Inicio: date(2025, 12, 17, 9), Fim: date(2025, 12, 17, 10), Status: "cancelado"},
	}
	bloqueios := []Bloqueio{{Data: date(2025, 12, 19, 0), Motivo: "Feriado municipal"}}
	return NewAgenda(cfg, events, bloqueios).WithClock(fixedNow)
}

func TestCellKey(t *testing.T) {
	assert.Equal(t, "2025-12-17-14", CellKey(date(2025, 12, 17, 0), 14))
	assert.Equal(t, "2025-12-17-08", CellKey(date(2025, 12, 17, 0), 8))
}

func TestGrid_CellIsStableAcrossScroll(t *testing.T) {
	grid := NewGrid(testAgenda(1), date(2025, 12, 14, 0))

	cell, ok := grid.Cell(date(2025, 12, 17, 0), 14)
	require.True(t, ok)
	assert.Equal(t, "2025-12-17-14", cell.Key)

	grid.Scroll(1)
	again, ok := grid.Cell(date(2025, 12, 17, 0), 14)
	require.True(t, ok)
	assert.Same(t, cell, again)

	grid.Scroll(-3)
	again, ok = grid.Cell(date(2025, 12, 17, 23), 14)
	require.True(t, ok)
	assert.Same(t, cell, again)

	byKey, ok := grid.Lookup("2025-12-17-14")
	require.True(t, ok)
	assert.Same(t, cell, byKey)

	grid.Scroll(10)
	_, ok = grid.Cell(date(2025, 12, 17, 0), 14)
	assert.False(t, ok)
}

func TestGrid_CellOutsideHours(t *testing.T) {
	grid := NewGrid(testAgenda(1), date(2025, 12, 14, 0))

	_, ok := grid.Cell(date(2025, 12, 17, 0), 7)
	assert.False(t, ok)
	_, ok = grid.Cell(date(2025, 12, 17, 0), 18)
	assert.False(t, ok)
}

func TestGrid_CellStates(t *testing.T) {
	grid := NewGrid(testAgenda(1), date(2025, 12, 14, 0))

	cell := func(day, hour int) *Cell {
		c, ok := grid.Cell(date(2025, 12, day, 0), hour)
		require.True(t, ok)
		return c
	}

	assert.Equal(t, StateLotado, cell(17, 14).State)
	assert.Len(t, cell(17, 14).Events, 1)
	assert.Equal(t, StateLivre, cell(17, 9).State, "cancelled events do not book a slot")
	assert.Equal(t, StatePassado, cell(15, 9).State)
	assert.Equal(t, StatePassado, cell(16, 9).State)
	assert.Equal(t, StateLivre, cell(16, 10).State)
	assert.True(t, cell(16, 10).IsToday)
	assert.False(t, cell(17, 10).IsToday)
	assert.Equal(t, StateBloqueado, cell(19, 10).State)
	assert.Equal(t, "Feriado municipal", cell(19, 10).Motivo)
}

func TestGrid_PartialWithCapacity(t *testing.T) {
	grid := NewGrid(testAgenda(2), date(2025, 12, 14, 0))

	c, ok := grid.Cell(date(2025, 12, 17, 0), 14)
	require.True(t, ok)
	assert.Equal(t, StateParcial, c.State)
	assert.Equal(t, 2, c.Capacity)
}

func TestGrid_RefreshKeepsCells(t *testing.T) {
	grid := NewGrid(testAgenda(1), date(2025, 12, 14, 0))
	before, _ := grid.Cell(date(2025, 12, 17, 0), 14)

	grid.Refresh(NewAgenda(Config{StartHour: 8, EndHour: 18, Location: time.UTC}, nil, nil).WithClock(fixedNow))

	after, ok := grid.Cell(date(2025, 12, 17, 0), 14)
	require.True(t, ok)
	assert.Same(t, before, after)
	assert.Equal(t, StateLivre, after.State)
}

func TestGrid_Rows(t *testing.T) {
	grid := NewGrid(testAgenda(1), date(2025, 12, 14, 0))
	rows := grid.Rows()

	require.Len(t, rows, 10)
	require.Len(t, rows[0], DaysVisible)
	assert.Equal(t, "2025-12-14-08", rows[0][0].Key)
	assert.Equal(t, "2025-12-20-17", rows[9][6].Key)
}

func TestAgenda_Month(t *testing.T) {
	view := testAgenda(1).Month(2025, time.December)

	require.Len(t, view.Weeks, 5)
	first := view.Weeks[0][0]
	assert.Equal(t, "2025-11-30", first.Date)
	assert.False(t, first.InMonth)
	assert.Equal(t, "2025-12-01", view.Weeks[0][1].Date)
	assert.Equal(t, "2026-01-03", view.Weeks[4][6].Date)

	byDate := map[string]DaySummary{}
	for _, week := range view.Weeks {
		for _, d := range week {
			byDate[d.Date] = d
		}
	}
	assert.Equal(t, 1, byDate["2025-12-17"].Count)
	assert.Equal(t, StateParcial, byDate["2025-12-17"].State)
	assert.Equal(t, StateBloqueado, byDate["2025-12-19"].State)
	assert.Equal(t, StatePassado, byDate["2025-12-10"].State)
	assert.Equal(t, StateLivre, byDate["2025-12-18"].State)
	assert.True(t, byDate["2025-12-16"].IsToday)
}

func TestAgenda_Day(t *testing.T) {
	agenda := testAgenda(1)

	detail := agenda.Day(date(2025, 12, 17, 0))
	assert.Equal(t, "2025-12-17", detail.Date)
	require.Len(t, detail.Events, 1)
	assert.Equal(t, "ag-1", detail.Events[0].ID)
	assert.Len(t, detail.FreeHours, 9)
	assert.NotContains(t, detail.FreeHours, 14)

	today := agenda.Day(date(2025, 12, 16, 0))
	assert.Equal(t, []int{10, 11, 12, 13, 14, 15, 16, 17}, today.FreeHours)

	blocked := agenda.Day(date(2025, 12, 19, 0))
	assert.Equal(t, StateBloqueado, blocked.State)
	assert.Empty(t, blocked.FreeHours)
	assert.Empty(t, blocked.Events)
}
