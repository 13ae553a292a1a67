package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/vnkhanh/wedding-rsvp/middleware"
	"github.com/vnkhanh/wedding-rsvp/models"
	"github.com/vnkhanh/wedding-rsvp/store"
)

const exportSheet = "Invitados"

var exportHeader = []any{
	"Invitado", "Apodo", "Teléfono", "Máx. invitados", "Estado",
	"Confirmados", "Respondió", "Enlaces", "Visitas",
}

type exportReq struct {
	State string `json:"state"`
}

// POST /admin/exports
func (h *Handler) CreateExport(c *gin.Context) {
	var req exportReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Payload không hợp lệ"})
			return
		}
	}
	if _, ok := parseState(req.State); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "state không hợp lệ"})
		return
	}

	job := &models.ExportJob{
		JobID:          uuid.NewString(),
		RequestedBy:    middleware.AdminFrom(c).Admin.ID,
		Format:         "xlsx",
		ResponseFilter: req.State,
		Status:         models.ExportQueued,
	}
	if err := h.store.CreateExportJob(c.Request.Context(), job); err != nil {
		h.internalError(c, "create export job", err)
		return
	}

	h.exports.Add(1)
	go func() {
		defer h.exports.Done()
		h.processExportJob(context.Background(), job.JobID)
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": job.JobID,
		"status": job.Status,
	})
}

// GET /admin/exports/:job_id
func (h *Handler) GetExport(c *gin.Context) {
	job, err := h.store.GetExportJob(c.Request.Context(), c.Param("job_id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Job không tìm thấy"})
		return
	}
	if err != nil {
		h.internalError(c, "get export job", err)
		return
	}

	if job.Status == models.ExportDone && job.FilePath != nil {
		c.FileAttachment(*job.FilePath, filepath.Base(*job.FilePath))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id": job.JobID,
		"status": job.Status,
		"error":  job.ErrorMsg,
	})
}

// xử lý job xuất danh sách khách
func (h *Handler) processExportJob(ctx context.Context, jobID string) {
	log := h.logger.With("job_id", jobID)

	job, err := h.store.GetExportJob(ctx, jobID)
	if err != nil {
		log.Error("load export job", "err", err)
		return
	}
	job.Status = models.ExportProcessing
	if err := h.store.UpdateExportJob(ctx, job); err != nil {
		log.Error("mark export processing", "err", err)
		return
	}

	path, err := h.writeGuestList(ctx, job)
	if err != nil {
		msg := err.Error()
		job.Status, job.ErrorMsg = models.ExportFailed, &msg
		log.Error("export failed", "err", err)
	} else {
		job.Status, job.FilePath = models.ExportDone, &path
		log.Info("export done", "file", path)
	}
	if err := h.store.UpdateExportJob(ctx, job); err != nil {
		log.Error("save export job", "err", err)
	}
}

func (h *Handler) writeGuestList(ctx context.Context, job *models.ExportJob) (string, error) {
	list, err := h.store.ListInvitations(ctx, store.InvitationFilter{State: models.ResponseState(job.ResponseFilter)})
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return "", err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return "", err
	}

	for i := range list {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", err
		}
		row := guestListRow(&list[i])
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(h.exportDir, 0o755); err != nil {
		return "", err
	}
	out := filepath.Join(h.exportDir, fmt.Sprintf("invitados_%s.xlsx", job.JobID))
	if err := f.SaveAs(out); err != nil {
		return "", err
	}
	return out, nil
}

func guestListRow(inv *models.Invitation) []any {
	visits := 0
	for _, t := range inv.Tokens {
		visits += t.AccessCount
	}
	var confirmed any = ""
	if inv.GuestCount != nil {
		confirmed = *inv.GuestCount
	}
	responded := ""
	if inv.RespondedAt != nil {
		responded = inv.RespondedAt.Format(time.RFC3339)
	}
	return []any{
		inv.GuestName,
		deref(inv.Nickname),
		deref(inv.Phone),
		inv.MaxGuests,
		string(inv.State()),
		confirmed,
		responded,
		len(inv.Tokens),
		visits,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
