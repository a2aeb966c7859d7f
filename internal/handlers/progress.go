package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/careerbridge/careerbridge-backend/internal/pkg/logger"
	"github.com/careerbridge/careerbridge-backend/internal/requestdata"
	"github.com/careerbridge/careerbridge-backend/internal/services"
	"github.com/careerbridge/careerbridge-backend/internal/sse"
	"github.com/careerbridge/careerbridge-backend/internal/types"
)

type ProgressHandler struct {
	log                *logger.Logger
	progressService    services.ProgressService
	leaderboardService services.LeaderboardService
	hub                *sse.Hub
}

func NewProgressHandler(log *logger.Logger, progressService services.ProgressService, leaderboardService services.LeaderboardService, hub *sse.Hub) *ProgressHandler {
	return &ProgressHandler{
		log:                log.With("handler", "ProgressHandler"),
		progressService:    progressService,
		leaderboardService: leaderboardService,
		hub:                hub,
	}
}

func (ph *ProgressHandler) TrackProgress(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var input types.ProgressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	rec, err := ph.progressService.TrackProgress(c.Request.Context(), rd.UserID, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": rec})
}

func (ph *ProgressHandler) GetProgress(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	rec, err := ph.progressService.GetProgress(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": rec})
}

// StreamProgress holds the response open and serves initial_progress,
// progress_update and heartbeat events until the client disconnects.
func (ph *ProgressHandler) StreamProgress(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	client := sse.NewClient(rd.UserID)
	unsubscribe, err := ph.progressService.Subscribe(c.Request.Context(), rd.UserID, client)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	defer unsubscribe()
	defer client.Close()

	ph.hub.ServeHTTP(c.Writer, c.Request, client)
}

func (ph *ProgressHandler) GetLeaderboard(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	entries := ph.leaderboardService.GetLeaderboard(c.Request.Context(), limit)
	RespondOK(c, gin.H{"leaderboard": entries})
}
