package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/geocoder89/sleephub/internal/domain/sleep"
	"github.com/geocoder89/sleephub/internal/domain/user"
	"github.com/geocoder89/sleephub/internal/service"
	"github.com/gin-gonic/gin"
)

type UsersReader interface {
	ListUsers(ctx context.Context, filter user.ListFilter) (user.Page, error)
	WeeklyChart(ctx context.Context, rawUserID string) ([]sleep.ChartPoint, error)
}

type UsersHandler struct {
	svc UsersReader
}

func NewUsersHandler(svc UsersReader) *UsersHandler {
	return &UsersHandler{svc: svc}
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	filter := service.ParseListFilter(ctx.Query("page"), ctx.Query("pageSize"))

	page, err := h.svc.ListUsers(ctx.Request.Context(), filter)
	if err != nil {
		RespondInternal(ctx, "Failed to retrieve users", err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, page)
}

func (h *UsersHandler) SleepChartData(ctx *gin.Context) {
	points, err := h.svc.WeeklyChart(ctx.Request.Context(), ctx.Param("user_id"))
	if err != nil {
		switch {
		case errors.Is(err, sleep.ErrInvalidUserID):
			RespondBadRequest(ctx, "Invalid user ID")
		case errors.Is(err, sleep.ErrNoChartData):
			RespondNotFound(ctx, "No sleep data found for this user in the past week")
		default:
			RespondInternal(ctx, "Failed to retrieve sleep chart data", err)
		}
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, points)
}
