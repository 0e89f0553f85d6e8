package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/masumrana0/Uploader/internal/service"
)

type DeleteHandler struct {
	deleter *service.Deleter
}

func NewDeleteHandler(deleter *service.Deleter) *DeleteHandler {
	return &DeleteHandler{deleter: deleter}
}

// Delete removes an object addressed by the "key" query parameter, which may
// be a bare key or the object's public URL
func (h *DeleteHandler) Delete(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing 'key' query parameter"})
		return
	}

	result, err := h.deleter.Delete(c.Request.Context(), key)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully", "key": result.Key})
}
