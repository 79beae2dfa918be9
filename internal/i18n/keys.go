// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess        = "success"
	KeyError          = "error"
	KeyTransientError = "error.transient"
	KeyRateLimited    = "error.rate_limited"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthSignUpSuccess      = "auth.signup_success"
	KeyAuthSignInSuccess      = "auth.signin_success"
	KeyAuthSignOutSuccess     = "auth.signout_success"
	KeyAuthCodeSent           = "auth.code_sent"
	KeyAuthCodeInvalid        = "auth.code_invalid"
	KeyAuthRefreshInvalid     = "auth.refresh_invalid"
	KeyAuthCodeMailSubject    = "auth.code_mail_subject"

	// Users
	KeyUserNotFound           = "user.not_found"
	KeyUserDisplayNameUpdated = "user.display_name_updated"
	KeyUserTermsSaved         = "user.terms_saved"
	KeyUserFallbackName       = "user.fallback_name"

	// Validation
	KeyValidationInvalid           = "validation.invalid"
	KeyValidationIdentifier        = "validation.invalid_identifier"
	KeyValidationIdeaFields        = "validation.idea_fields_required"
	KeyValidationPrice             = "validation.price_invalid"
	KeyValidationCommentRequired   = "validation.comment_required"
	KeyValidationCommentTooLong    = "validation.comment_too_long"
	KeyValidationImage             = "validation.image_invalid"
	KeyValidationNotificationType  = "validation.notification_type"
	KeyValidationRealtimeFilter    = "validation.realtime_filter"
	KeyValidationRealtimeTable     = "validation.realtime_table"
	KeyValidationParentComment     = "validation.parent_comment"
	KeyValidationNotificationInput = "validation.notification_input"

	// Ideas
	KeyIdeaCreated          = "idea.created"
	KeyIdeaUpdated          = "idea.updated"
	KeyIdeaDeleted          = "idea.deleted"
	KeyIdeaNotFound         = "idea.not_found"
	KeyIdeaPermissionDenied = "idea.permission_denied"
	KeyIdeaSoldToAnother    = "idea.sold_to_another"
	KeyIdeaAllCategory      = "idea.all_category"

	// Purchase requests
	KeyPurchaseRequested           = "purchase.requested"
	KeyPurchaseAlreadyRequested    = "purchase.already_requested"
	KeyPurchaseSelfPurchase        = "purchase.self_purchase"
	KeyPurchaseNotFound            = "purchase.not_found"
	KeyPurchasePermissionDenied    = "purchase.permission_denied"
	KeyPurchasePaymentConfirmed    = "purchase.payment_confirmed"
	KeyPurchaseApproved            = "purchase.approved"
	KeyPurchaseRejected            = "purchase.rejected"
	KeyPurchaseAlreadyProcessed    = "purchase.already_processed"
	KeyPurchasePaymentNotConfirmed = "purchase.payment_not_confirmed"

	// Notifications
	KeyNotificationNotFound       = "notification.not_found"
	KeyNotificationMarkedRead     = "notification.marked_read"
	KeyNotificationNothingChanged = "notification.nothing_changed"

	KeyNotifyRequestTitle      = "notify.request.title"
	KeyNotifyRequestMessage    = "notify.request.message"
	KeyNotifyFreeSoldTitle     = "notify.free_sold.title"
	KeyNotifyFreeSoldMessage   = "notify.free_sold.message"
	KeyNotifyFreeBoughtTitle   = "notify.free_bought.title"
	KeyNotifyFreeBoughtMessage = "notify.free_bought.message"
	KeyNotifyPaymentTitle      = "notify.payment.title"
	KeyNotifyPaymentMessage    = "notify.payment.message"
	KeyNotifyApprovedTitle     = "notify.approved.title"
	KeyNotifyApprovedMessage   = "notify.approved.message"
	KeyNotifyRejectedTitle     = "notify.rejected.title"
	KeyNotifyRejectedMessage   = "notify.rejected.message"

	// Comments
	KeyCommentCreated = "comment.created"
)
