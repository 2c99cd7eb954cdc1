package search

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joshu-sajeev/researchindex/common"
	"github.com/joshu-sajeev/researchindex/internal/dto"
)

// Searcher is the engine contract the HTTP layer depends on.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]dto.SearchResultDTO, error)
}

type Handler struct {
	engine Searcher
}

func NewHandler(engine Searcher) *Handler {
	return &Handler{engine: engine}
}

// Public serves the anonymous search surface: approved items only.
func (h *Handler) Public(c *gin.Context) {
	h.serve(c, PublicVisibility())
}

// Admin searches across every status.
func (h *Handler) Admin(c *gin.Context) {
	h.serve(c, AdminVisibility())
}

func (h *Handler) serve(c *gin.Context, vis Visibility) {
	strict, err := parseBool(c.Query("strict"))
	if err != nil {
		c.Error(common.NewAPIError(http.StatusBadRequest, "invalid strict flag",
			map[string]any{"provided": c.Query("strict")}))
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			c.Error(common.NewAPIError(http.StatusBadRequest, "limit must be a number",
				map[string]any{"provided": raw}))
			return
		}
	}

	text := c.Query("q")
	results, err := h.engine.Search(c.Request.Context(), Query{
		Text:       text,
		Strict:     strict,
		Limit:      limit,
		Visibility: vis,
	})
	if err != nil {
		c.Error(mapError(err))
		return
	}

	c.JSON(http.StatusOK, dto.SearchResponseDTO{
		Query:   strings.TrimSpace(text),
		Strict:  strict,
		Count:   len(results),
		Results: results,
	})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidQuery):
		return common.Errf(http.StatusBadRequest, "%s", err.Error())
	case errors.Is(err, common.ErrIndexUnavailable):
		return common.Errf(http.StatusServiceUnavailable, "search temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return common.Errf(http.StatusRequestTimeout, "request timed out")
	default:
		return common.Errf(http.StatusInternalServerError, "search failed")
	}
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "off":
		return false, nil
	case "1", "true", "yes", "on":
		return true, nil
	default:
		return false, errors.New("not a boolean")
	}
}
