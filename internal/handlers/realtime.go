// internal/handlers/realtime.go
package handlers

import (
	"context"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/ideamarket-backend/internal/apperrors"
	"github.com/javajoker/ideamarket-backend/internal/i18n"
	"github.com/javajoker/ideamarket-backend/internal/realtime"
	"github.com/javajoker/ideamarket-backend/internal/utils"
)

// filterable columns per table; every one of them holds a row identity
var realtimeColumns = map[string][]string{
	realtime.TableNotifications:    {"id", "user_id"},
	realtime.TablePurchaseRequests: {"id", "idea_id", "buyer_id", "seller_id"},
	realtime.TableComments:         {"id", "idea_id", "user_id"},
	realtime.TableIdeas:            {"id", "user_id"},
}

// RequestParticipants answers whether a user takes part in a purchase request.
type RequestParticipants interface {
	IsParticipant(ctx context.Context, requestID string, caller uuid.UUID) (bool, error)
}

type RealtimeHandler struct {
	broker       realtime.Broker
	participants RequestParticipants
	heartbeat    time.Duration
}

func NewRealtimeHandler(broker realtime.Broker, participants RequestParticipants, heartbeat time.Duration) *RealtimeHandler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &RealtimeHandler{
		broker:       broker,
		participants: participants,
		heartbeat:    heartbeat,
	}
}

// GET /v1/realtime/:table?column=&value=
func (h *RealtimeHandler) Stream(c *gin.Context) {
	table := c.Param("table")
	caller := utils.GetUserUUIDFromContext(c)

	ctx := c.Request.Context()
	filter, err := subscriptionFilter(ctx, h.participants, table, c.Query("column"), c.Query("value"), caller)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	sub, err := h.broker.Subscribe(ctx, table, filter)
	if err != nil {
		utils.AppErrorResponse(c, apperrors.Transient(i18n.KeyTransientError, "subscribe", err))
		return
	}
	defer sub.Close()

	logger := logrus.WithFields(logrus.Fields{
		"table":   table,
		"column":  filter.Column,
		"user_id": caller.String(),
	})
	logger.Debug("Realtime subscription opened")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-sub.Done():
			return false
		case event, ok := <-sub.Events():
			if !ok {
				return false
			}
			c.SSEvent(string(event.Op), redactEvent(event, caller))
			return true
		case <-ticker.C:
			_, err := io.WriteString(w, ": heartbeat\n\n")
			return err == nil
		}
	})

	logger.Debug("Realtime subscription closed")
}

// subscriptionFilter validates a subscription request and narrows it to
// rows the caller is allowed to hear about.
func subscriptionFilter(ctx context.Context, participants RequestParticipants, table, column, value string, caller uuid.UUID) (realtime.Filter, error) {
	columns, ok := realtimeColumns[table]
	if !ok {
		return realtime.Filter{}, apperrors.Validation(i18n.KeyValidationRealtimeTable, "unknown table "+table)
	}

	var filter realtime.Filter
	if column != "" || value != "" {
		if !containsString(columns, column) {
			return realtime.Filter{}, apperrors.Validation(i18n.KeyValidationRealtimeFilter, "unknown column "+column)
		}
		id, err := uuid.Parse(value)
		if err != nil {
			return realtime.Filter{}, apperrors.Validation(i18n.KeyValidationRealtimeFilter, "malformed filter value")
		}
		filter = realtime.Filter{Column: column, Value: id.String()}
	}

	switch table {
	case realtime.TableNotifications:
		if caller == uuid.Nil {
			return realtime.Filter{}, apperrors.Unauthenticated(i18n.KeyAuthRequired, "authentication required")
		}
		// an id filter would bypass the recipient check
		return realtime.Filter{Column: "user_id", Value: caller.String()}, nil

	case realtime.TablePurchaseRequests:
		switch filter.Column {
		case "idea_id":
			return filter, nil
		case "id":
			if caller == uuid.Nil {
				return realtime.Filter{}, apperrors.Unauthenticated(i18n.KeyAuthRequired, "authentication required")
			}
			ok, err := participants.IsParticipant(ctx, filter.Value, caller)
			if err != nil {
				return realtime.Filter{}, err
			}
			if !ok {
				return realtime.Filter{}, apperrors.Permission(i18n.KeyPurchasePermissionDenied, "not a participant")
			}
			return filter, nil
		case "buyer_id", "seller_id":
			if caller != uuid.Nil && filter.Value == caller.String() {
				return filter, nil
			}
			return realtime.Filter{}, apperrors.Permission(i18n.KeyPurchasePermissionDenied, "filter must name the caller")
		default:
			return realtime.Filter{}, apperrors.Validation(i18n.KeyValidationRealtimeFilter, "purchase request subscriptions need a filter")
		}
	}

	return filter, nil
}

// redactEvent strips buyer and seller identities from purchase request
// events unless the caller is one of them.
func redactEvent(event realtime.Event, caller uuid.UUID) realtime.Event {
	if event.Table != realtime.TablePurchaseRequests {
		return event
	}
	if caller != uuid.Nil {
		id := caller.String()
		if event.Columns["buyer_id"] == id || event.Columns["seller_id"] == id {
			return event
		}
	}
	redacted := event
	redacted.Columns = nil
	if ideaID, ok := event.Columns["idea_id"]; ok {
		redacted.Columns = map[string]string{"idea_id": ideaID}
	}
	return redacted
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
