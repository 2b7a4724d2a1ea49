package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/geocoder89/sleephub/internal/domain/sleep"
	"github.com/geocoder89/sleephub/internal/validation"
	"github.com/gin-gonic/gin"
)

type SleepRecordCreator interface {
	AddSleepRecord(ctx context.Context, in sleep.CreateRecordInput) (sleep.Record, error)
}

type SleepRecordsHandler struct {
	svc SleepRecordCreator
}

func NewSleepRecordsHandler(svc SleepRecordCreator) *SleepRecordsHandler {
	return &SleepRecordsHandler{svc: svc}
}

func (h *SleepRecordsHandler) CreateSleepRecord(ctx *gin.Context) {
	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			RespondError(ctx, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		RespondValidation(ctx, validation.Violations{{Path: []string{}, Message: "Invalid JSON body"}})
		return
	}

	in, err := validation.ParseSleepSubmission(body)
	if err != nil {
		var violations validation.Violations
		if errors.As(err, &violations) {
			RespondValidation(ctx, violations)
			return
		}
		RespondInternal(ctx, "Failed to add sleep record", err)
		return
	}

	rec, err := h.svc.AddSleepRecord(ctx.Request.Context(), in)
	if err != nil {
		RespondInternal(ctx, "Failed to add sleep record", err)
		return
	}

	ctx.JSON(http.StatusCreated, rec)
}
