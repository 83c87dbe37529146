package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/NikolajSankovDev/zyron/internal/httperr"
	"github.com/NikolajSankovDev/zyron/internal/media"
	"github.com/NikolajSankovDev/zyron/internal/usecase/barber"
)

type BarberHandler struct {
	avatar *barber.UpdateAvatar
}

func NewBarberHandler(avatar *barber.UpdateAvatar) *BarberHandler {
	return &BarberHandler{avatar: avatar}
}

// UploadAvatar takes either a multipart "avatar" field or the raw picture as
// the request body.
func (h *BarberHandler) UploadAvatar(c *gin.Context) {
	barberID, ok := idParam(c, "id")
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, media.MaxUploadBytes+1<<20)

	var picture io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("avatar")
		if err != nil {
			httperr.BadRequest(c, "missing_avatar", "Multipart field avatar is required.")
			return
		}
		f, err := fh.Open()
		if err != nil {
			httperr.BadRequest(c, "invalid_image", "Upload could not be read.")
			return
		}
		defer f.Close()
		picture = f
	}

	url, err := h.avatar.Execute(c.Request.Context(), barberID, picture, actor(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": url})
}
