package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotesync/internal/adapters/events"
	"github.com/jsamuelsen/quotesync/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotesync/internal/app"
)

// SyncCoordinator is the subset of app.SyncCoordinator the handlers need.
type SyncCoordinator interface {
	Sync(ctx context.Context) (app.SyncOutcome, error)
	Resolve(ctx context.Context, decision app.Decision) error
	Status() app.Status
}

// NotificationSource exposes the most recent sync notification.
type NotificationSource interface {
	Latest() (events.Notification, bool)
}

// SyncHandler serves sync and conflict resolution endpoints.
type SyncHandler struct {
	coordinator   SyncCoordinator
	notifications NotificationSource
}

// NewSyncHandler creates a sync handler. notifications may be nil.
func NewSyncHandler(coordinator SyncCoordinator, notifications NotificationSource) *SyncHandler {
	return &SyncHandler{coordinator: coordinator, notifications: notifications}
}

// Sync handles POST /api/v1/sync.
//
// @Summary Sync with the remote source
// @Tags sync
// @Produce json
// @Success 200 {object} dto.SyncResponse
// @Failure 409 {object} dto.ErrorResponse "a conflict is awaiting resolution"
// @Failure 503 {object} dto.ErrorResponse "the remote could not be fetched"
// @Router /api/v1/sync [post]
func (h *SyncHandler) Sync(c *gin.Context) {
	outcome, err := h.coordinator.Sync(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	resp := dto.SyncResponse{Outcome: string(outcome)}
	if outcome == app.OutcomeConflictDetected {
		resp.Conflict = toConflictResponse(h.coordinator.Status().Conflict)
	}

	c.JSON(http.StatusOK, resp)
}

// Status handles GET /api/v1/sync/status.
//
// @Summary Sync state
// @Tags sync
// @Produce json
// @Success 200 {object} dto.SyncStatusResponse
// @Router /api/v1/sync/status [get]
func (h *SyncHandler) Status(c *gin.Context) {
	status := h.coordinator.Status()

	resp := dto.SyncStatusResponse{
		State:     string(status.State),
		Conflict:  toConflictResponse(status.Conflict),
		LastError: status.LastError,
	}

	if !status.LastSync.IsZero() {
		resp.LastSync = &status.LastSync
	}

	if h.notifications != nil {
		if n, ok := h.notifications.Latest(); ok {
			resp.Notification = &dto.NotificationResponse{
				Type:        n.Type,
				Payload:     n.Payload,
				PublishedAt: n.PublishedAt,
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Resolve handles POST /api/v1/sync/resolve.
//
// @Summary Resolve a pending conflict
// @Tags sync
// @Accept json
// @Produce json
// @Param decision body dto.ResolveRequest true "accept or keep"
// @Success 200 {object} dto.ResolveResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "no conflict is pending"
// @Router /api/v1/sync/resolve [post]
func (h *SyncHandler) Resolve(c *gin.Context) {
	var req dto.ResolveRequest
	if err := dto.BindJSON(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	decision, err := app.ParseDecision(req.Decision)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	if err := h.coordinator.Resolve(c.Request.Context(), decision); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ResolveResponse{
		Decision: string(decision),
		State:    string(h.coordinator.Status().State),
	})
}

// RegisterRoutes registers sync routes on rg.
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	sync.POST("", h.Sync)
	sync.GET("/status", h.Status)
	sync.POST("/resolve", h.Resolve)
}

func toConflictResponse(record *app.ConflictRecord) *dto.ConflictResponse {
	if record == nil {
		return nil
	}

	return &dto.ConflictResponse{
		ID:         record.ID,
		Proposed:   dto.NewQuoteResponses(record.Proposed),
		Previous:   dto.NewQuoteResponses(record.Previous),
		Added:      record.Added,
		Replaced:   record.Replaced,
		DetectedAt: record.DetectedAt,
	}
}
