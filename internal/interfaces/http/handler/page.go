package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ibportal/backend/internal/application/dashboard"
	"github.com/ibportal/backend/internal/domain/grid"
	"github.com/ibportal/backend/internal/domain/identity"
	"github.com/ibportal/backend/internal/domain/portal"
	"github.com/ibportal/backend/internal/domain/shared"
	"github.com/ibportal/backend/internal/infrastructure/export"
	"github.com/ibportal/backend/internal/interfaces/http/dto"
	"github.com/ibportal/backend/internal/interfaces/http/middleware"
)

// Grid state query parameters
const (
	QueryParamSearch = "q"
	QueryParamFrom   = "from"
	QueryParamTo     = "to"
	QueryParamSort   = "sort"
	QueryParamDir    = "dir"
	QueryParamPage   = "page"
	QueryParamWait   = "wait"
	// SelectParamPrefix prefixes select filters, e.g. f.status=active
	SelectParamPrefix = "f."

	exportFilePrefix = "export."
)

// PageService is what the page handler needs from the dashboard application
type PageService interface {
	Nav(sess *identity.Session) []portal.NavSection
	View(ctx context.Context, sess *identity.Session, pageID string, in dashboard.ViewInput) (*dashboard.PageView, error)
	Export(ctx context.Context, sess *identity.Session, pageID string, state grid.State, format export.Format) (*dashboard.ExportResult, error)
	Invalidate(ctx context.Context, sess *identity.Session, pageID string) error
}

// PageHandler serves the navigation and the grid pages of one portal shell
type PageHandler struct {
	BaseHandler
	pages PageService
}

// NewPageHandler creates a new page handler
func NewPageHandler(pages PageService) *PageHandler {
	return &PageHandler{pages: pages}
}

// NavResponse is the sidebar of the signed-in portal
type NavResponse struct {
	Portal   string              `json:"portal"`
	User     identity.Profile    `json:"user"`
	Sections []portal.NavSection `json:"sections"`
}

// Nav returns the sidebar entries of the session's portal
func (h *PageHandler) Nav(c *gin.Context) {
	sess := middleware.GetSession(c)
	if sess == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	h.Success(c, NavResponse{
		Portal:   sess.Role.Label(),
		User:     sess.Profile,
		Sections: h.pages.Nav(sess),
	})
}

// View renders one page of a grid. The grid state comes from the query string.
func (h *PageHandler) View(c *gin.Context) {
	sess := middleware.GetSession(c)
	if sess == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	state, err := ParseGridState(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	wait := true
	if raw := c.Query(QueryParamWait); raw != "" {
		if wait, err = strconv.ParseBool(raw); err != nil {
			h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "wait must be true or false")
			return
		}
	}

	view, err := h.pages.View(c.Request.Context(), sess, c.Param("id"), dashboard.ViewInput{State: state, Wait: wait})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, view, dto.Meta{
		Total:      int64(view.Grid.Total),
		Filtered:   int64(view.Grid.Filtered),
		Page:       view.Grid.Page,
		PageSize:   view.Grid.PageSize,
		TotalPages: view.Grid.TotalPages,
	})
}

// Export streams the filtered set of a page as a file. The :file parameter is
// export.xlsx or export.pdf.
func (h *PageHandler) Export(c *gin.Context) {
	sess := middleware.GetSession(c)
	if sess == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	file := c.Param("file")
	if !strings.HasPrefix(file, exportFilePrefix) {
		h.NotFound(c, "Resource not found")
		return
	}
	format, err := export.ParseFormat(strings.TrimPrefix(file, exportFilePrefix))
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeUnsupportedFormat, "Export format must be xlsx or pdf")
		return
	}

	state, err := ParseGridState(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.pages.Export(c.Request.Context(), sess, c.Param("id"), state, format)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.Filename))
	c.Header("X-Export-Rows", strconv.Itoa(result.Rows))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// Invalidate drops the cached rows of a page for the session
func (h *PageHandler) Invalidate(c *gin.Context) {
	sess := middleware.GetSession(c)
	if sess == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	if err := h.pages.Invalidate(c.Request.Context(), sess, c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ParseGridState reads q, f.<key>, from, to, sort, dir and page. Validation of
// select keys and sort columns is left to the grid, which knows the page.
func ParseGridState(c *gin.Context) (grid.State, error) {
	query := c.Request.URL.Query()
	state := grid.State{
		Query:   query.Get(QueryParamSearch),
		From:    strings.TrimSpace(query.Get(QueryParamFrom)),
		To:      strings.TrimSpace(query.Get(QueryParamTo)),
		Selects: map[string]string{},
	}
	for key, values := range query {
		if name, ok := strings.CutPrefix(key, SelectParamPrefix); ok && name != "" && len(values) > 0 {
			state.Selects[name] = values[0]
		}
	}
	if key := query.Get(QueryParamSort); key != "" {
		state.Sort = grid.SortState{
			Key:       key,
			Direction: grid.Direction(strings.ToLower(query.Get(QueryParamDir))),
		}
	}
	if raw := query.Get(QueryParamPage); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return grid.State{}, shared.NewDomainError("INVALID_INPUT", "page must be a positive integer")
		}
		state.Page = page
	}
	return state, nil
}
