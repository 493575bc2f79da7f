// handlers_objects.go - Object registration, host events, classification
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chazu/steelhook/pkg/arrangement"
	"github.com/chazu/steelhook/pkg/model"
	"github.com/chazu/steelhook/pkg/steel"
)

type objectsRequest struct {
	Objects []string `json:"objects"`
}

type reclassifyRequest struct {
	Objects []string `json:"objects"`
	Code    string   `json:"code"`
}

type hooksEnabledRequest struct {
	Enabled *bool `json:"enabled"`
}

// resultView is steel.Result with the error flattened for JSON.
type resultView struct {
	Object string           `json:"object"`
	Path   arrangement.Path `json:"path,omitempty"`
	Labels []string         `json:"labels,omitempty"`
	Error  string           `json:"error,omitempty"`
}

func resultViews(rs []steel.Result) (views []resultView, failed int) {
	views = make([]resultView, 0, len(rs))
	for _, r := range rs {
		v := resultView{Object: r.Object, Path: r.Path, Labels: r.Labels}
		if r.Err != nil {
			v.Error = r.Err.Error()
			failed++
		}
		views = append(views, v)
	}
	return views, failed
}

// HandlePutObject registers or replaces a surface object.
func (h *Handlers) HandlePutObject(c echo.Context) error {
	var o model.SurfaceObject
	if err := c.Bind(&o); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if o.Name == "" {
		return NewValidationError("name")
	}
	if err := h.objects.Put(c.Request().Context(), &o); err != nil {
		return NewInternalError("failed to store object", err)
	}
	return c.JSON(http.StatusCreated, o)
}

// HandleObjectEntered emits the host "object entered" signal on the event
// bus. Subscribers decide whether to act; hooks run after the response.
func (h *Handlers) HandleObjectEntered(c echo.Context) error {
	name := c.Param("name")
	h.events.Emit(name)
	return c.JSON(http.StatusAccepted, map[string]string{"object": name})
}

// HandleGetLabels returns the labels of one object.
func (h *Handlers) HandleGetLabels(c echo.Context) error {
	name := c.Param("name")
	lbls, err := h.labels.Labels(c.Request().Context(), name)
	if err != nil {
		return NewInternalError("failed to read labels", err)
	}
	if lbls == nil {
		lbls = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"object": name,
		"labels": lbls,
	})
}

// HandleReclassify refiles objects under an explicit type code.
func (h *Handlers) HandleReclassify(c echo.Context) error {
	var req reclassifyRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if len(req.Objects) == 0 {
		return NewValidationError("objects")
	}
	if req.Code == "" {
		return NewValidationError("code")
	}

	views, failed := resultViews(h.steel.Reclassify(c.Request().Context(), req.Objects, req.Code))
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code":    req.Code,
		"results": views,
		"failed":  failed,
	})
}

// HandleRefreshLabels recomputes labels without refiling.
func (h *Handlers) HandleRefreshLabels(c echo.Context) error {
	var req objectsRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if len(req.Objects) == 0 {
		return NewValidationError("objects")
	}

	views, failed := resultViews(h.steel.Relabel(c.Request().Context(), req.Objects))
	return c.JSON(http.StatusOK, map[string]interface{}{
		"results": views,
		"failed":  failed,
	})
}

// HandleSetHooksEnabled switches hook execution on or off.
func (h *Handlers) HandleSetHooksEnabled(c echo.Context) error {
	var req hooksEnabledRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if req.Enabled == nil {
		return NewValidationError("enabled")
	}
	h.dispatcher.SetEnabled(*req.Enabled)
	return c.JSON(http.StatusOK, map[string]bool{"enabled": h.dispatcher.Enabled()})
}
