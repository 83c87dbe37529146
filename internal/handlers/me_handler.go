package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NikolajSankovDev/zyron/internal/domain/account"
	"github.com/NikolajSankovDev/zyron/internal/middleware"
)

type MeHandler struct {
	accounts account.Repository
}

func NewMeHandler(accounts account.Repository) *MeHandler {
	return &MeHandler{accounts: accounts}
}

func (h *MeHandler) GetMe(c *gin.Context) {
	user, err := h.accounts.GetUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}
