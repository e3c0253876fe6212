package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/mission-expenses/internal/application/service"
	"github.com/garyjia/mission-expenses/internal/domain/calendar"
	"github.com/garyjia/mission-expenses/internal/formula"
	"github.com/garyjia/mission-expenses/internal/spreadsheet"
	"github.com/garyjia/mission-expenses/internal/tabular"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers contains all HTTP request handlers
type Handlers struct {
	services    Services
	maxUpload   int64
	defaultMode service.ImportMode
	logger      Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, config ServerConfig, logger Logger) *Handlers {
	mode := config.DefaultImportMode
	if mode == "" {
		mode = service.ImportAppend
	}
	return &Handlers{
		services:    services,
		maxUpload:   config.MaxUploadBytes,
		defaultMode: mode,
		logger:      logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// ListEmployees handles GET /api/employees
func (h *Handlers) ListEmployees(c *gin.Context) {
	ok(c, http.StatusOK, h.services.Reference.Employees())
}

// ListBanks handles GET /api/banks
func (h *Handlers) ListBanks(c *gin.Context) {
	ok(c, http.StatusOK, h.services.Reference.Banks())
}

// ListMissions handles GET /api/missions
func (h *Handlers) ListMissions(c *gin.Context) {
	missions, err := h.services.Missions.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, "failed to retrieve missions")
		return
	}
	ok(c, http.StatusOK, missions)
}

// CreateMission handles POST /api/missions
func (h *Handlers) CreateMission(c *gin.Context) {
	var req MissionRequest
	if !h.bind(c, &req) {
		return
	}

	mission, err := h.services.Missions.Create(c.Request.Context(), req.toEntity())
	if err != nil {
		h.fail(c, err, "failed to create mission")
		return
	}
	ok(c, http.StatusCreated, mission)
}

// GetMission handles GET /api/missions/:id
func (h *Handlers) GetMission(c *gin.Context) {
	mission, err := h.services.Missions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to retrieve mission")
		return
	}
	ok(c, http.StatusOK, mission)
}

// UpdateMission handles PUT /api/missions/:id
func (h *Handlers) UpdateMission(c *gin.Context) {
	var req MissionRequest
	if !h.bind(c, &req) {
		return
	}

	mission, err := h.services.Missions.Update(c.Request.Context(), c.Param("id"), req.toEntity())
	if err != nil {
		h.fail(c, err, "failed to update mission")
		return
	}
	ok(c, http.StatusOK, mission)
}

// DeleteMission handles DELETE /api/missions/:id
func (h *Handlers) DeleteMission(c *gin.Context) {
	if err := h.services.Missions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, "failed to delete mission")
		return
	}
	ok(c, http.StatusOK, gin.H{"id": c.Param("id")})
}

// AddExpense handles POST /api/missions/:id/expenses
func (h *Handlers) AddExpense(c *gin.Context) {
	var req ExpenseRequest
	if !h.bind(c, &req) {
		return
	}

	mission, err := h.services.Missions.AddExpense(c.Request.Context(), c.Param("id"), req.toEntity())
	if err != nil {
		h.fail(c, err, "failed to add expense")
		return
	}
	ok(c, http.StatusCreated, mission)
}

// UpdateExpense handles PUT /api/missions/:id/expenses/:expenseId
func (h *Handlers) UpdateExpense(c *gin.Context) {
	var req ExpenseRequest
	if !h.bind(c, &req) {
		return
	}

	mission, err := h.services.Missions.UpdateExpense(c.Request.Context(), c.Param("id"), c.Param("expenseId"), req.toEntity())
	if err != nil {
		h.fail(c, err, "failed to update expense")
		return
	}
	ok(c, http.StatusOK, mission)
}

// RemoveExpense handles DELETE /api/missions/:id/expenses/:expenseId
func (h *Handlers) RemoveExpense(c *gin.Context) {
	mission, err := h.services.Missions.RemoveExpense(c.Request.Context(), c.Param("id"), c.Param("expenseId"))
	if err != nil {
		h.fail(c, err, "failed to remove expense")
		return
	}
	ok(c, http.StatusOK, mission)
}

// PreviewAllocation handles POST /api/allocations/preview
func (h *Handlers) PreviewAllocation(c *gin.Context) {
	var req AllocationPreviewRequest
	if !h.bind(c, &req) {
		return
	}

	shares, issue := h.services.Missions.PreviewAllocation(req.Expense.toEntity(), req.FallbackBank)

	resp := AllocationPreviewResponse{
		Shares: make([]ShareResponse, 0, len(shares)),
		Total:  shares.Total(),
	}
	for _, sh := range shares {
		resp.Shares = append(resp.Shares, ShareResponse{Bank: sh.Bank, Amount: sh.Amount})
	}
	if issue != nil {
		if !issue.Drift.IsZero() {
			drift := issue.Drift
			resp.Drift = &drift
		}
		resp.UnknownBanks = issue.UnknownBanks
	}
	ok(c, http.StatusOK, resp)
}

// Export handles GET /api/export
func (h *Handlers) Export(c *gin.Context) {
	result, err := h.services.Transfer.Export(c.Request.Context())
	if err != nil {
		h.fail(c, err, "failed to export missions")
		return
	}

	c.Header("X-Export-Warnings", strconv.Itoa(len(result.Warnings)))
	attachment(c, result.Filename, result.Data)
}

// ListArchivedExports handles GET /api/exports
func (h *Handlers) ListArchivedExports(c *gin.Context) {
	exports, err := h.services.Transfer.Archived(c.Request.Context())
	if err != nil {
		h.fail(c, err, "failed to list archived exports")
		return
	}
	ok(c, http.StatusOK, exports)
}

// DownloadArchivedExport handles GET /api/exports/:year/:month/:name
func (h *Handlers) DownloadArchivedExport(c *gin.Context) {
	result, err := h.services.Transfer.OpenArchived(c.Request.Context(), archivedPath(c))
	if err != nil {
		h.fail(c, err, "failed to read archived export")
		return
	}
	attachment(c, result.Filename, result.Data)
}

// DeleteArchivedExport handles DELETE /api/exports/:year/:month/:name
func (h *Handlers) DeleteArchivedExport(c *gin.Context) {
	p := archivedPath(c)
	if err := h.services.Transfer.DeleteArchived(c.Request.Context(), p); err != nil {
		h.fail(c, err, "failed to delete archived export")
		return
	}
	ok(c, http.StatusOK, gin.H{"path": p})
}

func archivedPath(c *gin.Context) string {
	return path.Join(c.Param("year"), c.Param("month"), c.Param("name"))
}

// Import handles POST /api/import with a multipart "file" field
func (h *Handlers) Import(c *gin.Context) {
	mode, err := service.ParseImportMode(c.DefaultPostForm("mode", c.Query("mode")), h.defaultMode)
	if err != nil {
		h.fail(c, err, "invalid import mode")
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "missing upload field \"file\"")
		return
	}
	if h.maxUpload > 0 && header.Size > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, Response{
			Success: false,
			Error:   fmt.Sprintf("file exceeds %d bytes", h.maxUpload),
		})
		return
	}

	file, err := header.Open()
	if err != nil {
		h.fail(c, err, "failed to read upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(c, err, "failed to read upload")
		return
	}

	h.logger.Info("Import requested",
		"filename", header.Filename,
		"size", header.Size,
		"mode", string(mode))

	rep, err := h.services.Transfer.Import(c.Request.Context(), data, mode)
	if err != nil {
		h.fail(c, err, "failed to import workbook")
		return
	}
	ok(c, http.StatusOK, rep)
}

// PeriodReport handles GET /api/reports/period?from=&to=
func (h *Handlers) PeriodReport(c *gin.Context) {
	from, to, valid := h.periodRange(c)
	if !valid {
		return
	}

	r, err := h.services.Reports.Period(c.Request.Context(), from, to)
	if err != nil {
		h.fail(c, err, "failed to build report")
		return
	}
	ok(c, http.StatusOK, r)
}

// PeriodWorkbook handles GET /api/reports/period.xlsx?from=&to=
func (h *Handlers) PeriodWorkbook(c *gin.Context) {
	from, to, valid := h.periodRange(c)
	if !valid {
		return
	}

	data, err := h.services.Reports.PeriodWorkbook(c.Request.Context(), from, to)
	if err != nil {
		h.fail(c, err, "failed to build report")
		return
	}
	attachment(c, fmt.Sprintf("report-%s-%s.xlsx", from, to), data)
}

func (h *Handlers) periodRange(c *gin.Context) (calendar.Date, calendar.Date, bool) {
	from, okFrom := calendar.ParseString(c.Query("from"))
	to, okTo := calendar.ParseString(c.Query("to"))
	if !okFrom || !okTo {
		badRequest(c, "from and to must be valid dates")
		return calendar.Date{}, calendar.Date{}, false
	}
	return from, to, true
}

func (h *Handlers) bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.logger.Warn("Invalid request body", "path", c.Request.URL.Path, "error", err)
		badRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// fail maps service errors onto status codes. Errors without a known
// sentinel are logged and reported with msg only.
func (h *Handlers) fail(c *gin.Context, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(msg, "path", c.Request.URL.Path, "error", err)
		c.JSON(status, Response{Success: false, Error: msg})
		return
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrMissionNotFound),
		errors.Is(err, service.ErrExpenseNotFound),
		errors.Is(err, service.ErrArchivedNotFound),
		errors.Is(err, service.ErrArchiveDisabled):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidMission),
		errors.Is(err, service.ErrInvalidExpense),
		errors.Is(err, service.ErrInvalidRange),
		errors.Is(err, service.ErrInvalidImportMode),
		errors.Is(err, service.ErrInvalidArchivedPath),
		errors.Is(err, tabular.ErrNoMissionsSheet),
		errors.Is(err, tabular.ErrNoDataRows),
		errors.Is(err, spreadsheet.ErrUnreadableWorkbook),
		errors.Is(err, formula.ErrSyntax),
		errors.Is(err, formula.ErrDivideByZero):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

func attachment(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
