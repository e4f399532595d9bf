package rest

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/minerva/erp/internal/application/services"
	"github.com/minerva/erp/internal/domain/calendar"
	"github.com/minerva/erp/pkg/errors"
)

const dateLayout = "2006-01-02"

// CalendarService builds agenda views
type CalendarService interface {
	Location() *time.Location
	Week(ctx context.Context, inicio time.Time, colaboradorID string) (*services.WeekView, error)
	Month(ctx context.Context, year int, month time.Month, colaboradorID string) (*calendar.MonthView, error)
	Day(ctx context.Context, date time.Time, colaboradorID string) (*calendar.DayDetail, error)
}

type CalendarHandler struct {
	svc CalendarService
	now func() time.Time
}

func NewCalendarHandler(svc CalendarService) *CalendarHandler {
	return &CalendarHandler{svc: svc, now: time.Now}
}

func (h *CalendarHandler) parseDate(c *gin.Context, field, raw string) (time.Time, bool) {
	if raw == "" {
		return h.now().In(h.svc.Location()), true
	}
	t, err := time.ParseInLocation(dateLayout, raw, h.svc.Location())
	if err != nil {
		RespondAppError(c, errors.NewValidationError(field, "expected YYYY-MM-DD"))
		return time.Time{}, false
	}
	return t, true
}

// Week handles GET /api/calendario/semana?inicio=YYYY-MM-DD&colaborador=
func (h *CalendarHandler) Week(c *gin.Context) {
	inicio, ok := h.parseDate(c, "inicio", c.Query("inicio"))
	if !ok {
		return
	}
	HandleGetEnvelope(c, "semana", func() (interface{}, error) {
		return h.svc.Week(c.Request.Context(), inicio, c.Query("colaborador"))
	})
}

// Month handles GET /api/calendario/mes?ano=&mes=&colaborador=
func (h *CalendarHandler) Month(c *gin.Context) {
	now := h.now().In(h.svc.Location())
	year, month := now.Year(), int(now.Month())

	if raw := c.Query("ano"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			RespondAppError(c, errors.NewValidationError("ano", "must be a number"))
			return
		}
		year = n
	}
	if raw := c.Query("mes"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			RespondAppError(c, errors.NewValidationError("mes", "must be a number"))
			return
		}
		month = n
	}

	HandleGetEnvelope(c, "mes", func() (interface{}, error) {
		return h.svc.Month(c.Request.Context(), year, time.Month(month), c.Query("colaborador"))
	})
}

// Day handles GET /api/calendario/dia/:data
func (h *CalendarHandler) Day(c *gin.Context) {
	date, ok := h.parseDate(c, "data", c.Param("data"))
	if !ok {
		return
	}
	HandleGetEnvelope(c, "dia", func() (interface{}, error) {
		return h.svc.Day(c.Request.Context(), date, c.Query("colaborador"))
	})
}
