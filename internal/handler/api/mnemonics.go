package api

import (
	"context"
	"errors"
	"net/http"

	"EngDB/internal/domain/models"
	"EngDB/internal/service/mast"
	"EngDB/internal/usecase"
	xhttp "EngDB/pkg/http"
	xlogger "EngDB/pkg/logger"
	"EngDB/pkg/util"

	"github.com/labstack/echo/v4"
)

// MnemonicHandler serves the engineering database viewer API.
type MnemonicHandler struct {
	logger   *xlogger.Logger
	edb      *usecase.EngineeringDB
	renderer models.ChartRenderer
}

func NewMnemonicHandler(logger *xlogger.Logger, edb *usecase.EngineeringDB, renderer models.ChartRenderer) *MnemonicHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &MnemonicHandler{logger: logger, edb: edb, renderer: renderer}
}

func (h *MnemonicHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/mnemonics")
	g.GET("", h.List)
	g.GET("/:id/valid", h.Valid)
	g.GET("/:id/info", h.Info)
	g.GET("/:id/timeseries", h.Timeseries)
	g.GET("/:id/plot", h.Plot)
}

// TimeseriesResponse is the body of a successful timeseries lookup.
type TimeseriesResponse struct {
	Identifier  string              `json:"identifier"`
	Description string              `json:"description"`
	Start       string              `json:"start"`
	End         string              `json:"end"`
	Columns     []string            `json:"columns"`
	Rows        []models.Object     `json:"rows"`
	Total       int                 `json:"total"`
	Truncated   bool                `json:"truncated"`
	Meta        models.Object       `json:"meta"`
	Info        models.MnemonicInfo `json:"info"`
}

func (h *MnemonicHandler) List(c echo.Context) error {
	req := &models.InventoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	table, meta, err := h.edb.ListMnemonics(c.Request().Context())
	if err != nil {
		return h.fail(c, "inventory", err)
	}
	rows := table.Rows()
	if len(rows) > req.Limit {
		rows = rows[:req.Limit]
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.ListResponse(c, rows, int64(table.Len()), meta)
}

func (h *MnemonicHandler) Valid(c echo.Context) error {
	req := &models.MnemonicRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ok, err := h.edb.IsValidMnemonic(c.Request().Context(), req.ID)
	if err != nil {
		return h.fail(c, "valid", err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{"id": req.ID, "valid": ok})
}

func (h *MnemonicHandler) Info(c echo.Context) error {
	req := &models.MnemonicRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	info, err := h.edb.QueryMnemonicInfo(c.Request().Context(), req.ID)
	if err != nil {
		return h.fail(c, "info", err)
	}
	return xhttp.SuccessResponse(c, info)
}

func (h *MnemonicHandler) Timeseries(c echo.Context) error {
	m, req, done := h.query(c, "timeseries")
	if done != nil || m == nil {
		return done
	}

	rows := m.Data().Rows()
	total := len(rows)
	if total > req.Limit {
		rows = rows[:req.Limit]
	}
	return xhttp.SuccessResponse(c, &TimeseriesResponse{
		Identifier:  m.Identifier(),
		Description: m.Describe(),
		Start:       util.ISOT(m.StartTime()),
		End:         util.ISOT(m.EndTime()),
		Columns:     m.Data().ColumnNames(),
		Rows:        rows,
		Total:       total,
		Truncated:   total > len(rows),
		Meta:        m.Meta(),
		Info:        m.Info(),
	})
}

func (h *MnemonicHandler) Plot(c echo.Context) error {
	m, _, done := h.query(c, "plot")
	if done != nil || m == nil {
		return done
	}

	div, script, err := m.RenderPlot(h.renderer)
	if err != nil {
		return h.fail(c, "plot", err)
	}
	return xhttp.SuccessResponse(c, models.ChartComponents{Div: div, Script: script})
}

// query validates a timeseries request and runs it. When the returned error
// is non-nil or the record is nil, the response has already been written.
func (h *MnemonicHandler) query(c echo.Context, op string) (*models.EdbMnemonic, *models.TimeseriesRequest, error) {
	req := &models.TimeseriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return nil, nil, xhttp.BadRequestResponse(c, verr)
	}
	start, ok := xhttp.ParseTime(req.Start)
	if !ok {
		return nil, nil, xhttp.AppErrorResponse(c, invalidTime("start", req.Start))
	}
	end, ok := xhttp.ParseTime(req.End)
	if !ok {
		return nil, nil, xhttp.AppErrorResponse(c, invalidTime("end", req.End))
	}

	m, err := h.edb.QuerySingleMnemonic(c.Request().Context(), req.ID, start, end)
	if err != nil {
		return nil, nil, h.fail(c, op, err)
	}
	return m, req, nil
}

func invalidTime(field, value string) *xhttp.AppError {
	e := xhttp.BadRequestErrorf("%s is not a recognised time", field)
	e.Field = field
	return e.WithParam("value", value)
}

func (h *MnemonicHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= 500 {
		h.logger.Error("mnemonic "+op+" failed", xlogger.String("path", c.Path()), xlogger.Error(err))
	} else {
		h.logger.Debug("mnemonic "+op+" rejected", xlogger.String("path", c.Path()), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// toAppError maps domain and transport errors to HTTP errors.
func toAppError(err error) *xhttp.AppError {
	var (
		invalid *models.InvalidArgumentError
		status  *xhttp.StatusError
	)
	switch {
	case errors.As(err, &invalid):
		e := xhttp.BadRequestError(invalid.Error())
		e.Field = invalid.Argument
		return e.WithError(err)
	case errors.Is(err, models.ErrNoData):
		return xhttp.NotFoundError("no data for the requested mnemonic").WithError(err)
	case errors.Is(err, models.ErrQueryIncomplete):
		return xhttp.BadGatewayError("engineering database query did not complete").WithError(err)
	case errors.Is(err, models.ErrMissingUnit):
		return xhttp.NewAppError("ERR_MISSING_UNIT", "unit", "mnemonic info has no unit", http.StatusBadGateway).WithError(err)
	case errors.Is(err, models.ErrUnsupportedOperation):
		return xhttp.NotImplementedError(err.Error()).WithError(err)
	case mast.IsOpen(err):
		return xhttp.NewAppError("ERR_UNAVAILABLE", "", "engineering database temporarily unavailable", http.StatusServiceUnavailable).WithError(err)
	case errors.As(err, &status):
		return xhttp.BadGatewayError("engineering database request failed").
			WithParam("upstream_status", status.StatusCode).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.NewAppError("ERR_TIMEOUT", "", "engineering database request timed out", http.StatusGatewayTimeout).WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
