// internal/handlers/idea.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/ideamarket-backend/internal/i18n"
	"github.com/javajoker/ideamarket-backend/internal/services"
	"github.com/javajoker/ideamarket-backend/internal/utils"
)

type IdeaHandler struct {
	ideaService     *services.IdeaService
	purchaseService *services.PurchaseService
	commentService  *services.CommentService
}

func NewIdeaHandler(ideaService *services.IdeaService, purchaseService *services.PurchaseService, commentService *services.CommentService) *IdeaHandler {
	return &IdeaHandler{
		ideaService:     ideaService,
		purchaseService: purchaseService,
		commentService:  commentService,
	}
}

// GET /v1/ideas
func (h *IdeaHandler) ListIdeas(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	ideas, err := h.ideaService.ListVisible(c.Request.Context(), utils.GetUserUUIDFromContext(c), c.Query("tag"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(utils.PageOf(ideas, params), int64(len(ideas)), params)
	utils.PaginatedResponse(c, result)
}

// GET /v1/ideas/categories
func (h *IdeaHandler) Categories(c *gin.Context) {
	categories, err := h.ideaService.Categories(c.Request.Context(), utils.GetUserUUIDFromContext(c), utils.GetLangFromContext(c))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"categories": categories,
	})
}

// GET /v1/ideas/mine
func (h *IdeaHandler) ListMyIdeas(c *gin.Context) {
	ideas, err := h.ideaService.ListByOwner(c.Request.Context(), utils.GetUserUUIDFromContext(c))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"ideas": ideas,
	})
}

// GET /v1/ideas/:id
func (h *IdeaHandler) GetIdea(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	detail, err := h.ideaService.GetForViewer(c.Request.Context(), c.Param("id"), utils.GetUserUUIDFromContext(c))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	if detail.AccessDeniedReason != "" {
		detail.AccessDeniedReason = i18n.T(lang, detail.AccessDeniedReason)
	}
	utils.SuccessResponse(c, detail)
}

// POST /v1/ideas
func (h *IdeaHandler) CreateIdea(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	idea, err := h.ideaService.Create(c.Request.Context(), utils.GetUserUUIDFromContext(c), &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyIdeaCreated),
		"idea":    idea,
	})
}

// PUT /v1/ideas/:id
func (h *IdeaHandler) UpdateIdea(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.UpdateIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	idea, err := h.ideaService.Update(c.Request.Context(), c.Param("id"), utils.GetUserUUIDFromContext(c), &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyIdeaUpdated),
		"idea":    idea,
	})
}

// DELETE /v1/ideas/:id
func (h *IdeaHandler) DeleteIdea(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	if err := h.ideaService.Delete(c.Request.Context(), c.Param("id"), utils.GetUserUUIDFromContext(c)); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyIdeaDeleted),
	})
}

// GET /v1/ideas/:id/purchase-requests/count
func (h *IdeaHandler) CountPendingRequests(c *gin.Context) {
	count, err := h.purchaseService.CountPending(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"pending": count,
	})
}

// GET /v1/ideas/:id/purchase-requests/mine
func (h *IdeaHandler) MyRequestStatus(c *gin.Context) {
	status, err := h.purchaseService.HasRequest(c.Request.Context(), c.Param("id"), utils.GetUserUUIDFromContext(c))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, status)
}

// GET /v1/ideas/:id/comments
func (h *IdeaHandler) ListComments(c *gin.Context) {
	comments, err := h.commentService.ListByIdea(c.Request.Context(), c.Param("id"),
		utils.GetUserUUIDFromContext(c), utils.GetLangFromContext(c))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"comments": comments,
	})
}

// POST /v1/ideas/:id/comments
func (h *IdeaHandler) CreateComment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	comment, err := h.commentService.Create(c.Request.Context(), c.Param("id"), utils.GetUserUUIDFromContext(c), &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCommentCreated),
		"comment": comment,
	})
}
