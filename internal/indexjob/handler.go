package indexjob

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joshu-sajeev/researchindex/common"
	"github.com/joshu-sajeev/researchindex/internal/config"
	"github.com/joshu-sajeev/researchindex/internal/dto"
	"github.com/joshu-sajeev/researchindex/middleware"
)

type Handler struct {
	service ServiceInterface
}

func NewHandler(s ServiceInterface) *Handler {
	return &Handler{service: s}
}

var _ HandlerInterface = (*Handler)(nil)

// Create handles manual enqueue requests and returns HTTP 201 with the new job.
func (h *Handler) Create(c *gin.Context) {
	var req dto.IndexJobCreateDTO
	if !middleware.Bind(c, &req) {
		c.Abort()
		return
	}

	resp, err := h.service.Enqueue(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Get returns one job by its ID.
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id < 1 {
		c.Error(common.Errf(http.StatusBadRequest, "invalid ID"))
		return
	}

	resp, err := h.service.GetJobByID(c.Request.Context(), uint(id))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// List returns the newest jobs, optionally filtered by ?status=.
func (h *Handler) List(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}

	jobs, err := h.service.ListJobs(c.Request.Context(), c.Query("status"), limit)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, jobs)
}

// Stats returns job counts per status.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Process runs one batch synchronously and returns its counters.
func (h *Handler) Process(c *gin.Context) {
	limit, ok := queryInt(c, "limit", config.DefaultBatchLimit)
	if !ok {
		return
	}

	result, err := h.service.Process(c.Request.Context(), limit)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		c.Error(common.NewAPIError(http.StatusBadRequest, key+" must be a number",
			map[string]any{"provided": raw}))
		return 0, false
	}
	return n, true
}
