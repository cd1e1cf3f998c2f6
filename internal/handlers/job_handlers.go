package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tokenlens/burnwatch/api"
	"github.com/tokenlens/burnwatch/internal/common"
)

// JobModel is the wire form of a recomputation job record.
type JobModel struct {
	ID               string   `json:"id"`
	TokenID          string   `json:"tokenId"`
	Status           string   `json:"status"`
	WindowsRequested []string `json:"windowsRequested"`
	CreatedAt        string   `json:"createdAt"`
	StartedAt        string   `json:"startedAt,omitempty"`
	CompletedAt      string   `json:"completedAt,omitempty"`
	Error            string   `json:"error,omitempty"`
}

// GetJobStatus serves GET /v1/jobs/:jobId, the diagnostic view of one
// recomputation job.
func GetJobStatus(c *gin.Context) {
	jobID := c.Param("jobId")

	job, err := jobStorage.GetJob(c.Request.Context(), jobID)
	if err != nil {
		log.Error().Err(err).Str("job", jobID).Msg("Error getting job")
		api.InternalErrorHandler(c)
		return
	}
	if job == nil {
		api.NotFoundErrorHandler(c, fmt.Errorf("job %q not found", jobID))
		return
	}

	c.JSON(200, serializeJob(job))
}

// ListTokenJobs serves GET /v1/tokens/:tokenId/jobs, newest first. The
// token reference resolves the same way as on the burn-metrics endpoint.
func ListTokenJobs(c *gin.Context) {
	token, err := tokenRegistry.Resolve(c.Param("tokenId"))
	if err != nil {
		api.NotFoundErrorHandler(c, err)
		return
	}
	tokenID := token.ID()

	params, err := api.ParsePaginationParams(c)
	if err != nil {
		api.BadRequestErrorHandler(c, err)
		return
	}

	jobs, err := jobStorage.ListJobsByToken(c.Request.Context(), tokenID, params.Limit, params.Page)
	if err != nil {
		log.Error().Err(err).Str("token", tokenID).Msg("Error listing jobs")
		api.InternalErrorHandler(c)
		return
	}

	models := make([]JobModel, len(jobs))
	for i, job := range jobs {
		models[i] = serializeJob(job)
	}

	c.JSON(200, api.QueryResponse{
		Meta: api.Meta{
			TokenID: tokenID,
			Page:    params.Page,
			Limit:   params.Limit,
		},
		Data: models,
	})
}

func serializeJob(job *common.RecomputationJob) JobModel {
	windows := make([]string, len(job.WindowsRequested))
	for i, w := range job.WindowsRequested {
		windows[i] = string(w)
	}
	model := JobModel{
		ID:               job.ID,
		TokenID:          job.TokenID,
		Status:           string(job.Status),
		WindowsRequested: windows,
		CreatedAt:        job.CreatedAt.UTC().Format(time.RFC3339),
		Error:            job.Error,
	}
	if !job.StartedAt.IsZero() {
		model.StartedAt = job.StartedAt.UTC().Format(time.RFC3339)
	}
	if !job.CompletedAt.IsZero() {
		model.CompletedAt = job.CompletedAt.UTC().Format(time.RFC3339)
	}
	return model
}
