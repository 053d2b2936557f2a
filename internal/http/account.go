package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type AccountController struct {
	accounts AccountDeleter
}

func NewAccountController(accounts AccountDeleter) *AccountController {
	return &AccountController{accounts: accounts}
}

// DeleteAccount handles DELETE /api/account
// Removes the caller and everything they own.
func (ac *AccountController) DeleteAccount(c *gin.Context) {
	if err := ac.accounts.Delete(c.Request.Context(), GetUserID(c)); err != nil {
		respondServiceError(c, err, "account", "delete account")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
