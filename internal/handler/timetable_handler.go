package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type timetableService interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
	GetSlotCatalog(ctx context.Context, req dto.SlotCatalogRequest) ([]models.Slot, error)
	List(ctx context.Context, query dto.TimetableQuery) ([]models.TimetableWeek, *models.Pagination, error)
	Get(ctx context.Context, scheduleID string) (*dto.TimetableDetail, error)
	Delete(ctx context.Context, scheduleID string) error
	Finalize(ctx context.Context, scheduleID string, req dto.FinalizeTimetableRequest) (*dto.FinalizeTimetableResponse, error)
	Unfinalize(ctx context.Context, scheduleID string) (*models.TimetableWeek, error)
	Clone(ctx context.Context, sourceID string, req dto.CloneTimetableRequest) (*dto.CloneTimetableResponse, error)
	SubjectLoad(ctx context.Context, scheduleID string) ([]models.SubjectLoad, error)
	Export(ctx context.Context, scheduleID, format string) (*service.TimetableExport, error)
	AddEntry(ctx context.Context, scheduleID string, req dto.AddEntryRequest) (*models.TimetableEntry, error)
	EditEntry(ctx context.Context, entryID string, req dto.EditEntryRequest) (*models.TimetableEntry, error)
	DeleteEntry(ctx context.Context, entryID string) error
	AuditConflicts(ctx context.Context, weekStartDate string) ([]models.ConflictRecord, error)
}

// TimetableHandler exposes weekly timetable endpoints.
type TimetableHandler struct {
	service timetableService
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Generate godoc
// @Summary Generate and persist a weekly timetable
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// SlotCatalog godoc
// @Summary Preview the placeable slots of a week
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.SlotCatalogRequest true "Template payload"
// @Success 200 {object} response.Envelope
// @Router /timetables/slot-catalog [post]
func (h *TimetableHandler) SlotCatalog(c *gin.Context) {
	var req dto.SlotCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot catalog payload"))
		return
	}
	slots, err := h.service.GetSlotCatalog(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// List godoc
// @Summary List timetables
// @Tags Timetables
// @Produce json
// @Param weekStart query string false "Week start date (YYYY-MM-DD)"
// @Param department query string false "Department"
// @Param semester query int false "Semester"
// @Param status query string false "DRAFT or FINALIZED"
// @Success 200 {object} response.Envelope
// @Router /timetables [get]
func (h *TimetableHandler) List(c *gin.Context) {
	var query dto.TimetableQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	weeks, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, weeks, pagination)
}

// Get godoc
// @Summary Get a timetable with its slots and entries
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Delete godoc
// @Summary Delete a draft timetable
// @Tags Timetables
// @Param id path string true "Timetable ID"
// @Success 204
// @Router /timetables/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Finalize godoc
// @Summary Audit and finalize a timetable
// @Description Conflicts involving the week block finalisation unless acknowledgeConflicts is set.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param payload body dto.FinalizeTimetableRequest false "Finalize payload"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/finalize [post]
func (h *TimetableHandler) Finalize(c *gin.Context) {
	var req dto.FinalizeTimetableRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid finalize payload"))
			return
		}
	}
	result, err := h.service.Finalize(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Unfinalize godoc
// @Summary Return a finalized timetable to draft
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/unfinalize [post]
func (h *TimetableHandler) Unfinalize(c *gin.Context) {
	week, err := h.service.Unfinalize(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, week, nil)
}

// Clone godoc
// @Summary Copy a timetable onto another week
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Source timetable ID"
// @Param payload body dto.CloneTimetableRequest true "Clone payload"
// @Success 201 {object} response.Envelope
// @Router /timetables/{id}/clone [post]
func (h *TimetableHandler) Clone(c *gin.Context) {
	var req dto.CloneTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid clone payload"))
		return
	}
	result, err := h.service.Clone(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// SubjectLoad godoc
// @Summary Count placed lectures per subject
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/load [get]
func (h *TimetableHandler) SubjectLoad(c *gin.Context) {
	loads, err := h.service.SubjectLoad(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, loads, nil)
}

// Export godoc
// @Summary Download a timetable as CSV or PDF
// @Tags Timetables
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Timetable ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /timetables/{id}/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+file.Filename+"\"")
	c.Data(http.StatusOK, file.ContentType, file.Payload)
}

// AddEntry godoc
// @Summary Place a lecture by hand
// @Tags Timetable Entries
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param payload body dto.AddEntryRequest true "Entry payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetables/{id}/entries [post]
func (h *TimetableHandler) AddEntry(c *gin.Context) {
	var req dto.AddEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid entry payload"))
		return
	}
	entry, err := h.service.AddEntry(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// EditEntry godoc
// @Summary Change the subject, faculty or room of an entry
// @Tags Timetable Entries
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body dto.EditEntryRequest true "Entry payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable-entries/{id} [put]
func (h *TimetableHandler) EditEntry(c *gin.Context) {
	var req dto.EditEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid entry payload"))
		return
	}
	entry, err := h.service.EditEntry(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// DeleteEntry godoc
// @Summary Remove an entry from a draft timetable
// @Tags Timetable Entries
// @Param id path string true "Entry ID"
// @Success 204
// @Router /timetable-entries/{id} [delete]
func (h *TimetableHandler) DeleteEntry(c *gin.Context) {
	if err := h.service.DeleteEntry(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Conflicts godoc
// @Summary Audit faculty double bookings for a week
// @Tags Timetables
// @Produce json
// @Param weekStart query string true "Week start date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /timetable-conflicts [get]
func (h *TimetableHandler) Conflicts(c *gin.Context) {
	weekStart := c.Query("weekStart")
	if weekStart == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "weekStart is required"))
		return
	}
	conflicts, err := h.service.AuditConflicts(c.Request.Context(), weekStart)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conflicts, nil, map[string]interface{}{"count": len(conflicts)})
}
