package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appsync "github.com/channelsync/backend/internal/application/sync"
	syncdomain "github.com/channelsync/backend/internal/domain/sync"
	"github.com/channelsync/backend/internal/interfaces/http/dto"
)

// SyncHandler handles sync job, run log and synced data API endpoints
type SyncHandler struct {
	BaseHandler
	jobs   *appsync.JobService
	worker *appsync.Worker
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(jobs *appsync.JobService, worker *appsync.Worker) *SyncHandler {
	return &SyncHandler{jobs: jobs, worker: worker}
}

// EnqueueJob handles POST /sync/jobs
func (h *SyncHandler) EnqueueJob(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "Seller identity required")
		return
	}

	var req dto.EnqueueJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	connectionID, err := uuid.Parse(req.ConnectionID)
	if err != nil {
		h.BadRequest(c, "Invalid connection ID")
		return
	}

	job, err := h.jobs.Enqueue(c.Request.Context(), appsync.EnqueueJobInput{
		SellerID:     sellerID,
		ConnectionID: connectionID,
		Type:         syncdomain.JobType(req.Type),
		Parameters:   req.Parameters,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.JobResponseFromDomain(job))
}

// GetJob handles GET /sync/jobs/:id
func (h *SyncHandler) GetJob(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "Seller identity required")
		return
	}

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid job ID")
		return
	}

	job, err := h.jobs.GetJob(c.Request.Context(), sellerID, jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.JobResponseFromDomain(job))
}

// ListJobs handles GET /sync/jobs
func (h *SyncHandler) ListJobs(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "Seller identity required")
		return
	}

	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	if listReq.Page == 0 {
		listReq.Page = 1
	}
	if listReq.PageSize == 0 {
		listReq.PageSize = 20
	}

	filter := syncdomain.JobFilter{
		SellerID: &sellerID,
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
	}
	if typeParam := c.Query("type"); typeParam != "" {
		jobType := syncdomain.JobType(typeParam)
		filter.Type = &jobType
	}
	if statusParam := c.Query("status"); statusParam != "" {
		status := syncdomain.JobStatus(statusParam)
		filter.Status = &status
	}

	jobs, total, err := h.jobs.ListJobs(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]dto.JobResponse, len(jobs))
	for i := range jobs {
		responses[i] = dto.JobResponseFromDomain(&jobs[i])
	}
	h.SuccessWithMeta(c, responses, total, listReq.Page, listReq.PageSize)
}

// ListRuns handles GET /sync/runs
func (h *SyncHandler) ListRuns(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "Seller identity required")
		return
	}

	runs, err := h.jobs.ListRuns(c.Request.Context(), sellerID, queryLimit(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]dto.RunLogResponse, len(runs))
	for i := range runs {
		responses[i] = dto.RunLogResponseFromDomain(&runs[i])
	}
	h.Success(c, responses)
}

// ListOrders handles GET /sync/orders
func (h *SyncHandler) ListOrders(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "Seller identity required")
		return
	}

	limit := queryLimit(c)
	records, total, err := h.jobs.ListOrders(c.Request.Context(), sellerID, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]dto.OrderRecordResponse, len(records))
	for i := range records {
		responses[i] = dto.OrderRecordResponseFromDomain(&records[i])
	}
	h.SuccessWithMeta(c, responses, total, 1, limit)
}

// ListProducts handles GET /sync/products
func (h *SyncHandler) ListProducts(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "Seller identity required")
		return
	}

	mappings, err := h.jobs.ListProducts(c.Request.Context(), sellerID, queryLimit(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]dto.ProductMappingResponse, len(mappings))
	for i := range mappings {
		responses[i] = dto.ProductMappingResponseFromDomain(&mappings[i])
	}
	h.Success(c, responses)
}

// RunWorker handles POST /sync/worker/run, the scheduler-triggered batch.
// Auth is the scheduler middleware, not seller JWT.
func (h *SyncHandler) RunWorker(c *gin.Context) {
	var req dto.RunWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	opts := appsync.ProcessOptions{Limit: req.Limit}
	if req.SellerID != "" {
		sellerID, err := uuid.Parse(req.SellerID)
		if err != nil {
			h.BadRequest(c, "Invalid seller ID")
			return
		}
		opts.SellerID = &sellerID
	}

	result, err := h.worker.ProcessPendingJobs(c.Request.Context(), opts)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.BatchResultResponse{
		Processed: result.Processed,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
	})
}

// queryLimit reads the limit query parameter, defaulting to 50 capped at 200
func queryLimit(c *gin.Context) int {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > 200 {
		limit = 200
	}
	return limit
}
