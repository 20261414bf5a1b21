package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuongbtq/media-batch/internal/api/dto"
	"github.com/cuongbtq/media-batch/internal/report"
	workerdomain "github.com/cuongbtq/media-batch/internal/worker/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// SubmitBatch handles POST /api/v1/batches
// Queues a list of URLs for the batch worker
func (h *BatchHandler) SubmitBatch(c *gin.Context) {
	var req dto.SubmitBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	batchID := uuid.New().String()
	msg := workerdomain.SubmissionMessage{
		BatchID: batchID,
		URLs:    req.URLs,
	}

	if err := h.publisher.PublishJSON(c.Request.Context(), batchID, msg); err != nil {
		h.logger.Error("Failed to queue batch",
			slog.String("batch_id", batchID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Failed to queue batch",
		})
		return
	}

	h.logger.Info("Batch queued",
		slog.String("batch_id", batchID),
		slog.Int("items", len(req.URLs)),
	)

	c.JSON(http.StatusAccepted, dto.SubmitBatchResponse{
		BatchID: batchID,
		Items:   len(req.URLs),
		Status:  "queued",
	})
}

// GetBatch handles GET /api/v1/batches/:batch_id
// Returns the summary of a finished batch and its failures
func (h *BatchHandler) GetBatch(c *gin.Context) {
	batchID := c.Param("batch_id")

	if _, err := uuid.Parse(batchID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "batch_id must be a valid UUID",
		})
		return
	}

	ctx := c.Request.Context()

	run, err := h.store.GetRun(ctx, batchID)
	if err != nil {
		if errors.Is(err, report.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Batch not found or still running",
			})
			return
		}
		h.logger.Error("Failed to get batch", slog.String("batch_id", batchID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get batch",
		})
		return
	}

	failures, err := h.store.ListFailures(ctx, batchID)
	if err != nil {
		h.logger.Error("Failed to list failures", slog.String("batch_id", batchID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get batch",
		})
		return
	}

	resp := dto.BatchDetailResponse{
		BatchDTO: toBatchDTO(run),
		Failures: make([]dto.FailureDTO, len(failures)),
	}
	for i, f := range failures {
		resp.Failures[i] = dto.FailureDTO{
			Position: f.Position,
			URL:      f.URL,
			Error:    f.Message,
		}
	}

	c.JSON(http.StatusOK, resp)
}

// ListBatches handles GET /api/v1/batches
// Lists finished batches, newest first, with cursor pagination
func (h *BatchHandler) ListBatches(c *gin.Context) {
	var req dto.ListBatchesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	cursor, err := DecodeRunCursor(req.Cursor)
	if err != nil {
		h.logger.Warn("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	runs, err := h.store.ListRuns(c.Request.Context(), report.RunFilter{
		PageSize: req.PageSize,
		Cursor:   cursor,
	})
	if err != nil {
		h.logger.Error("Failed to list batches", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list batches",
		})
		return
	}

	hasMore := len(runs) > req.PageSize
	if hasMore {
		runs = runs[:req.PageSize]
	}

	batches := make([]dto.BatchDTO, len(runs))
	for i := range runs {
		batches[i] = toBatchDTO(&runs[i])
	}

	var nextCursor string
	if hasMore {
		last := runs[len(runs)-1]
		nextCursor = EncodeRunCursor(&report.RunCursor{
			StartedAt: last.StartedAt,
			RunID:     last.RunID,
		})
	}

	c.JSON(http.StatusOK, dto.ListBatchesResponse{
		Batches:    batches,
		NextCursor: nextCursor,
	})
}

func toBatchDTO(run *report.RunRow) dto.BatchDTO {
	return dto.BatchDTO{
		BatchID:    run.RunID,
		StartedAt:  run.StartedAt.Format(time.RFC3339),
		FinishedAt: run.FinishedAt.Format(time.RFC3339),
		Total:      run.TotalItems,
		Succeeded:  run.Completed - run.Failed,
		Failed:     run.Failed,
		PeakActive: run.PeakActive,
	}
}
