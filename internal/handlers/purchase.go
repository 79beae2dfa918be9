// internal/handlers/purchase.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/ideamarket-backend/internal/i18n"
	"github.com/javajoker/ideamarket-backend/internal/services"
	"github.com/javajoker/ideamarket-backend/internal/utils"
)

type PurchaseHandler struct {
	purchaseService *services.PurchaseService
}

func NewPurchaseHandler(purchaseService *services.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
	}
}

// POST /v1/purchase-requests
func (h *PurchaseHandler) CreateRequest(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	request, created, err := h.purchaseService.CreateRequest(c.Request.Context(), req.IdeaID, utils.GetUserUUIDFromContext(c))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	if !created {
		utils.SuccessResponse(c, gin.H{
			"message": i18n.T(lang, i18n.KeyPurchaseAlreadyRequested),
			"request": request,
			"created": false,
		})
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPurchaseRequested),
		"request": request,
		"created": true,
	})
}

// GET /v1/purchase-requests/sent
func (h *PurchaseHandler) ListSent(c *gin.Context) {
	views, err := h.purchaseService.ListMine(c.Request.Context(), utils.GetUserUUIDFromContext(c))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"requests": views,
	})
}

// GET /v1/purchase-requests/received
func (h *PurchaseHandler) ListReceived(c *gin.Context) {
	views, err := h.purchaseService.ListReceived(c.Request.Context(), utils.GetUserUUIDFromContext(c))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"requests": views,
	})
}

// GET /v1/purchase-requests/purchased
func (h *PurchaseHandler) ListPurchased(c *gin.Context) {
	views, err := h.purchaseService.ListPurchasedIdeas(c.Request.Context(), utils.GetUserUUIDFromContext(c))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"purchases": views,
	})
}

// GET /v1/purchase-requests/:id
func (h *PurchaseHandler) GetRequest(c *gin.Context) {
	view, err := h.purchaseService.Get(c.Request.Context(), c.Param("id"), utils.GetUserUUIDFromContext(c))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, view)
}

// PUT /v1/purchase-requests/:id/confirm-payment
func (h *PurchaseHandler) ConfirmPayment(c *gin.Context) {
	request, err := h.purchaseService.ConfirmPayment(c.Request.Context(), c.Param("id"), utils.GetUserUUIDFromContext(c))
	h.respondTransition(c, request, err, i18n.KeyPurchasePaymentConfirmed)
}

// PUT /v1/purchase-requests/:id/approve
func (h *PurchaseHandler) Approve(c *gin.Context) {
	request, err := h.purchaseService.Approve(c.Request.Context(), c.Param("id"), utils.GetUserUUIDFromContext(c))
	h.respondTransition(c, request, err, i18n.KeyPurchaseApproved)
}

// PUT /v1/purchase-requests/:id/reject
func (h *PurchaseHandler) Reject(c *gin.Context) {
	request, err := h.purchaseService.Reject(c.Request.Context(), c.Param("id"), utils.GetUserUUIDFromContext(c))
	h.respondTransition(c, request, err, i18n.KeyPurchaseRejected)
}

func (h *PurchaseHandler) respondTransition(c *gin.Context, request interface{}, err error, successKey string) {
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), successKey),
		"request": request,
	})
}
