// internal/handlers/notification.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/ideamarket-backend/internal/i18n"
	"github.com/javajoker/ideamarket-backend/internal/services"
	"github.com/javajoker/ideamarket-backend/internal/utils"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// GET /v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	notifications, total, err := h.notificationService.List(c.Request.Context(), utils.GetUserUUIDFromContext(c), params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(notifications, total, params))
}

// GET /v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"unread": h.notificationService.UnreadCount(c.Request.Context(), utils.GetUserUUIDFromContext(c)),
	})
}

// PUT /v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	changed, err := h.notificationService.MarkRead(c.Request.Context(), c.Param("id"), utils.GetUserUUIDFromContext(c))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	message := i18n.T(lang, i18n.KeyNotificationMarkedRead)
	if !changed {
		message = i18n.T(lang, i18n.KeyNotificationNothingChanged)
	}
	utils.SuccessResponse(c, gin.H{
		"message": message,
		"changed": changed,
	})
}

// PUT /v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	updated, err := h.notificationService.MarkAllRead(c.Request.Context(), utils.GetUserUUIDFromContext(c))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	message := i18n.T(lang, i18n.KeyNotificationMarkedRead)
	if updated == 0 {
		message = i18n.T(lang, i18n.KeyNotificationNothingChanged)
	}
	utils.SuccessResponse(c, gin.H{
		"message": message,
		"updated": updated,
	})
}
