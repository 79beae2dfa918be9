// internal/handlers/user.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/ideamarket-backend/internal/i18n"
	"github.com/javajoker/ideamarket-backend/internal/services"
	"github.com/javajoker/ideamarket-backend/internal/utils"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GET /v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	profile, err := h.userService.Profile(c.Request.Context(), c.Param("id"), utils.GetUserUUIDFromContext(c))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"user": profile,
	})
}

// PUT /v1/users/me/display-name
func (h *UserHandler) UpdateDisplayName(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.UpdateDisplayNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	user, err := h.userService.UpdateDisplayName(c.Request.Context(), utils.GetUserUUIDFromContext(c), &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyUserDisplayNameUpdated),
		"user":    user,
	})
}

// GET /v1/users/me/terms
func (h *UserHandler) GetTermsAgreement(c *gin.Context) {
	agreed, err := h.userService.HasAgreedToTerms(c.Request.Context(), utils.GetUserUUIDFromContext(c))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"agreed": agreed,
	})
}

// POST /v1/users/me/terms
func (h *UserHandler) SaveTermsAgreement(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.TermsAgreementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	agreement, err := h.userService.SaveTermsAgreement(c.Request.Context(), utils.GetUserUUIDFromContext(c), req.Agreed)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":   i18n.T(lang, i18n.KeyUserTermsSaved),
		"agreement": agreement,
	})
}
