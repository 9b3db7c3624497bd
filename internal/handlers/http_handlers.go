package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"hrtool/internal/export"
	"hrtool/internal/grouping"
	"hrtool/internal/ingest"
	"hrtool/internal/models"
	"hrtool/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/google/uuid"
)

const (
	tenantCookie = "hr_tenant"
	tenantHeader = "X-Tenant-ID"
	tenantKey    = "tenantID"
)

// HTTPHandler holds the dependencies for the HTTP handlers, like the HR service.
type HTTPHandler struct {
	service          *services.HRService
	defaultGroupSize int
	streamInterval   time.Duration
}

// NewHTTPHandler creates a new HTTPHandler. streamInterval is how often the
// draw event stream pushes a snapshot.
func NewHTTPHandler(service *services.HRService, defaultGroupSize int, streamInterval time.Duration) *HTTPHandler {
	if defaultGroupSize <= 0 {
		defaultGroupSize = grouping.DefaultSize
	}
	if streamInterval <= 0 {
		streamInterval = 80 * time.Millisecond
	}
	return &HTTPHandler{
		service:          service,
		defaultGroupSize: defaultGroupSize,
		streamInterval:   streamInterval,
	}
}

// TenantMiddleware identifies the caller's session by header or cookie and
// mints a new tenant id when neither carries a valid one.
func (h *HTTPHandler) TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(tenantHeader)
		if tenantID == "" {
			tenantID, _ = c.Cookie(tenantCookie)
		}
		if _, err := uuid.Parse(tenantID); err != nil {
			tenantID = uuid.NewString()
			c.SetCookie(tenantCookie, tenantID, 0, "/", "", false, true)
		}
		c.Set(tenantKey, tenantID)
		c.Next()
	}
}

func tenant(c *gin.Context) string {
	return c.GetString(tenantKey)
}

// RegisterPublicRoutes registers routes that need no session.
func (h *HTTPHandler) RegisterPublicRoutes(router *gin.Engine) {
	router.GET("/healthz", h.Health)
}

// RegisterTenantRoutes registers all session-scoped routes.
func (h *HTTPHandler) RegisterTenantRoutes(rg *gin.RouterGroup) {
	rg.GET("/participants", h.ListParticipants)
	rg.POST("/participants", h.AddParticipants)
	rg.POST("/participants/upload", h.UploadParticipantsCSV)
	rg.POST("/participants/sample", h.LoadSample)
	rg.POST("/participants/dedupe", h.RemoveDuplicates)
	rg.DELETE("/participants/:id", h.RemoveParticipant)
	rg.DELETE("/participants", h.ClearParticipants)

	rg.GET("/draw", h.ShowDraw)
	rg.POST("/draw/start", h.StartDraw)
	rg.POST("/draw/reset", h.ResetDraw)
	rg.POST("/draw/repeatable", h.SetRepeatable)
	rg.GET("/draw/events", h.StreamDraw)

	rg.GET("/groups", h.ShowGroups)
	rg.POST("/groups", h.GenerateGroups)
	rg.GET("/groups/export", h.ExportGroupsCSV)

	rg.DELETE("/session", h.ClearSession)
}

// Health reports liveness and the number of open sessions.
func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": h.service.SessionCount()})
}

// ListParticipants returns the roster with its duplicate names.
func (h *HTTPHandler) ListParticipants(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Roster(tenant(c)))
}

// AddParticipants handles the pasted name list, one name per line.
func (h *HTTPHandler) AddParticipants(c *gin.Context) {
	added := h.service.AddText(tenant(c), c.PostForm("names"))
	c.JSON(http.StatusOK, gin.H{"added": len(added), "roster": h.service.Roster(tenant(c))})
}

// UploadParticipantsCSV handles the CSV upload for participants. Every cell is a name.
func (h *HTTPHandler) UploadParticipantsCSV(c *gin.Context) {
	file, _, err := c.Request.FormFile("participantCSV")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "請選擇要上傳的 CSV 檔案"})
		return
	}
	defer file.Close()

	added, err := h.service.ImportCSV(tenant(c), file)
	if err != nil {
		if errors.Is(err, ingest.ErrMalformedCSV) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Errorf("Error reading CSV: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error reading CSV"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": len(added), "roster": h.service.Roster(tenant(c))})
}

// LoadSample appends the demo roster.
func (h *HTTPHandler) LoadSample(c *gin.Context) {
	added := h.service.AddSample(tenant(c))
	c.JSON(http.StatusOK, gin.H{"added": len(added), "roster": h.service.Roster(tenant(c))})
}

// RemoveDuplicates keeps only the first participant of each name.
func (h *HTTPHandler) RemoveDuplicates(c *gin.Context) {
	removed := h.service.RemoveDuplicates(tenant(c))
	c.JSON(http.StatusOK, gin.H{"removed": removed, "roster": h.service.Roster(tenant(c))})
}

// RemoveParticipant deletes one participant; an unknown id is not an error.
func (h *HTTPHandler) RemoveParticipant(c *gin.Context) {
	removed := h.service.RemoveParticipant(tenant(c), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"removed": removed, "roster": h.service.Roster(tenant(c))})
}

// ClearParticipants empties the roster.
func (h *HTTPHandler) ClearParticipants(c *gin.Context) {
	h.service.ClearParticipants(tenant(c))
	c.JSON(http.StatusOK, h.service.Roster(tenant(c)))
}

// ShowDraw returns the draw state.
func (h *HTTPHandler) ShowDraw(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.DrawSnapshot(tenant(c)))
}

// StartDraw starts a draw. A rejected start returns the unchanged state with started=false.
func (h *HTTPHandler) StartDraw(c *gin.Context) {
	snap, started := h.service.StartDraw(tenant(c))
	c.JSON(http.StatusOK, gin.H{"started": started, "draw": snap})
}

// ResetDraw refills the pool and clears the winners.
func (h *HTTPHandler) ResetDraw(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ResetDraw(tenant(c)))
}

// SetRepeatable handles the "allow repeat winners" toggle.
func (h *HTTPHandler) SetRepeatable(c *gin.Context) {
	repeatable, err := strconv.ParseBool(c.PostForm("repeatable"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid repeatable flag"})
		return
	}
	c.JSON(http.StatusOK, h.service.SetRepeatable(tenant(c), repeatable))
}

// StreamDraw pushes draw snapshots as server-sent events until the draw
// leaves the drawing state or the client goes away.
func (h *HTTPHandler) StreamDraw(c *gin.Context) {
	tenantID := tenant(c)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	snap := h.service.DrawSnapshot(tenantID)
	c.SSEvent("draw", snap)
	c.Writer.Flush()

	ticker := time.NewTicker(h.streamInterval)
	defer ticker.Stop()
	for snap.State == models.DrawDrawing {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
		}
		snap = h.service.DrawSnapshot(tenantID)
		c.SSEvent("draw", snap)
		c.Writer.Flush()
	}
}

func (h *HTTPHandler) groupSize(raw string) (int, error) {
	if raw == "" {
		return h.defaultGroupSize, nil
	}
	size, err := strconv.Atoi(raw)
	if err != nil {
		return 0, grouping.ErrSizeOutOfRange
	}
	if err := grouping.ValidateSize(size); err != nil {
		return 0, err
	}
	return size, nil
}

// ShowGroups returns the last grouping result and, for ?size=N, the group
// count a new run would produce.
func (h *HTTPHandler) ShowGroups(c *gin.Context) {
	size, err := h.groupSize(c.Query("size"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	count := h.service.Roster(tenant(c)).Count
	c.JSON(http.StatusOK, gin.H{
		"size":            size,
		"estimatedGroups": grouping.EstimatedGroups(count, size),
		"groups":          h.service.Groups(tenant(c)),
	})
}

// GenerateGroups handles the "auto group" request.
func (h *HTTPHandler) GenerateGroups(c *gin.Context) {
	size, err := h.groupSize(c.PostForm("size"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	groups, err := h.service.GenerateGroups(tenant(c), size)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"size": size, "groups": groups})
}

// ExportGroupsCSV handles the request to download the grouping result as a CSV file.
func (h *HTTPHandler) ExportGroupsCSV(c *gin.Context) {
	groups := h.service.Groups(tenant(c))
	if len(groups) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "尚未產生分組結果"})
		return
	}

	var buf bytes.Buffer
	if err := export.WriteGroupsCSV(&buf, groups); err != nil {
		logger.Errorf("Error writing groups CSV: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing CSV"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(export.GroupsFilename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ClearSession drops every piece of state for the caller.
func (h *HTTPHandler) ClearSession(c *gin.Context) {
	h.service.ClearSession(tenant(c))
	c.Status(http.StatusNoContent)
}
