package research

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joshu-sajeev/researchindex/common"
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

// Create stores a new research item and returns HTTP 201.
func (h *Handler) Create(c *gin.Context) {
	var req dto.ResearchCreateDTO
	if !middleware.Bind(c, &req) {
		c.Abort()
		return
	}

	resp, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req dto.ResearchUpdateDTO
	if !middleware.Bind(c, &req) {
		return
	}

	resp, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) SetStatus(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req dto.ResearchStatusDTO
	if !middleware.Bind(c, &req) {
		return
	}

	resp, err := h.service.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	resp, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id < 1 {
		c.Error(common.Errf(http.StatusBadRequest, "invalid ID"))
		return 0, false
	}
	return uint(id), true
}
