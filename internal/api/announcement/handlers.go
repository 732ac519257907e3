package announcement

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/obi2na/courier/internal/logger"
	courier "github.com/obi2na/courier/internal/models"
	announcementsvc "github.com/obi2na/courier/internal/service/announcement"
	"github.com/obi2na/courier/internal/wordpress"
	"go.uber.org/zap"
)

func RegisterAnnouncementRoutes(r *gin.RouterGroup, svc announcementsvc.Service) {
	h := NewHandler(svc)

	r.POST("/announcements/:id/publish", h.Publish)
	r.POST("/announcements/:id/publish/stream", h.PublishStream)
	r.POST("/sites/:siteId/publish", h.PublishToSite)
}

type Handler struct {
	Service announcementsvc.Service
}

func NewHandler(svc announcementsvc.Service) *Handler {
	return &Handler{Service: svc}
}

// statusFor maps a publish outcome onto an HTTP status.
func statusFor(out wordpress.Outcome) int {
	switch {
	case out.Success:
		return http.StatusOK
	case out.FailureKind == wordpress.KindConfiguration:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func lookupStatus(err error) (int, string) {
	switch {
	case errors.Is(err, announcementsvc.ErrAnnouncementNotFound):
		return http.StatusNotFound, "announcement not found"
	case errors.Is(err, announcementsvc.ErrSiteNotFound):
		return http.StatusNotFound, "site not found"
	default:
		return http.StatusInternalServerError, "failed to load announcement"
	}
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) Publish(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	out, err := h.Service.PublishAnnouncement(ctx, id, nil)
	if err != nil {
		status, msg := lookupStatus(err)
		logger.With(ctx).Warn("publish rejected", zap.String("announcement_id", id.String()), zap.Error(err))
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(statusFor(out), courier.NewPublishResponse(out))
}

func (h *Handler) PublishToSite(c *gin.Context) {
	ctx := c.Request.Context()
	siteID, ok := parseUUIDParam(c, "siteId")
	if !ok {
		return
	}

	var body courier.PublishToSiteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		logger.With(ctx).Error("Failed to bind json", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid publish request"})
		return
	}

	out := h.Service.Publish(ctx, body.ToPublishRequest(), siteID, nil)
	c.JSON(statusFor(out), courier.NewPublishResponse(out))
}

type streamResult struct {
	out wordpress.Outcome
	err error
}

// PublishStream runs the publish and streams every state snapshot as a
// "progress" event, then ends with an "outcome" or "error" event.
func (h *Handler) PublishStream(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	states := make(chan wordpress.State, 16)
	results := make(chan streamResult, 1)
	done := make(chan struct{})
	defer close(done)

	observer := func(s wordpress.State) {
		select {
		case states <- s:
		case <-done:
		}
	}
	go func() {
		out, err := h.Service.PublishAnnouncement(ctx, id, observer)
		results <- streamResult{out: out, err: err}
	}()

	c.Header("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case s := <-states:
			c.SSEvent("progress", s)
			return true
		case res := <-results:
			// the observer runs synchronously, so every snapshot is queued by now
			for pending := true; pending; {
				select {
				case s := <-states:
					c.SSEvent("progress", s)
				default:
					pending = false
				}
			}
			if res.err != nil {
				status, msg := lookupStatus(res.err)
				c.SSEvent("error", gin.H{"status": status, "error": msg})
				return false
			}
			c.SSEvent("outcome", courier.NewPublishResponse(res.out))
			return false
		case <-ctx.Done():
			logger.With(ctx).Info("progress stream closed by client", zap.String("announcement_id", id.String()))
			return false
		}
	})
}
