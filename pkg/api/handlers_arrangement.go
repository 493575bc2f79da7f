// handlers_arrangement.go - Arrangement tree inspection
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/chazu/steelhook/pkg/arrangement"
)

func (h *Handlers) snapshot(c echo.Context) (*arrangement.SnapshotNode, error) {
	tree := h.steel.Tree()
	if err := tree.LoadAll(c.Request().Context()); err != nil {
		return nil, NewInternalError("failed to load arrangement tree", err)
	}
	return tree.Snapshot(), nil
}

// HandleGetArrangements returns the whole tree as nested JSON.
func (h *Handlers) HandleGetArrangements(c echo.Context) error {
	snap, err := h.snapshot(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"nodes": snap.Count(),
		"root":  snap,
	})
}

// HandleGetArrangementsMsgpack returns the tree snapshot as msgpack.
func (h *Handlers) HandleGetArrangementsMsgpack(c echo.Context) error {
	snap, err := h.snapshot(c)
	if err != nil {
		return err
	}
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleGetPath returns the path an object would be filed under without
// creating nodes.
func (h *Handlers) HandleGetPath(c echo.Context) error {
	name := c.QueryParam("object")
	if name == "" {
		return NewValidationError("object")
	}
	path, err := h.steel.ComputePath(c.Request().Context(), name)
	if err != nil {
		return objectError(name, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"object": name,
		"path":   path,
		"leaf":   path.Leaf(),
	})
}
