package handlers

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/ideamarket-backend/internal/apperrors"
	"github.com/javajoker/ideamarket-backend/internal/i18n"
	"github.com/javajoker/ideamarket-backend/internal/realtime"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubParticipants maps request ids to their buyer and seller.
type stubParticipants struct {
	requests map[string][]uuid.UUID
	err      error
}

func (p stubParticipants) IsParticipant(ctx context.Context, requestID string, caller uuid.UUID) (bool, error) {
	if p.err != nil {
		return false, p.err
	}
	for _, id := range p.requests[requestID] {
		if id == caller {
			return true, nil
		}
	}
	return false, nil
}

func TestSubscriptionFilter(t *testing.T) {
	caller := uuid.New()
	other := uuid.New()
	ideaID := uuid.New()
	ownRequest := uuid.New()
	foreignRequest := uuid.New()
	participants := stubParticipants{requests: map[string][]uuid.UUID{
		ownRequest.String():     {caller, other},
		foreignRequest.String(): {other, uuid.New()},
	}}

	tests := []struct {
		name    string
		table   string
		column  string
		value   string
		caller  uuid.UUID
		want    realtime.Filter
		errKind apperrors.Kind
	}{
		{"unknown table", "users", "", "", caller, realtime.Filter{}, apperrors.KindValidation},
		{"notifications forced to caller", realtime.TableNotifications, "", "", caller,
			realtime.Filter{Column: "user_id", Value: caller.String()}, ""},
		{"notifications ignore foreign filter", realtime.TableNotifications, "user_id", other.String(), caller,
			realtime.Filter{Column: "user_id", Value: caller.String()}, ""},
		{"notifications need a caller", realtime.TableNotifications, "", "", uuid.Nil, realtime.Filter{}, apperrors.KindUnauthenticated},
		{"purchase requests without filter", realtime.TablePurchaseRequests, "", "", caller, realtime.Filter{}, apperrors.KindValidation},
		{"purchase requests by idea", realtime.TablePurchaseRequests, "idea_id", strings.ToUpper(ideaID.String()), caller,
			realtime.Filter{Column: "idea_id", Value: ideaID.String()}, ""},
		{"purchase request by id as participant", realtime.TablePurchaseRequests, "id", ownRequest.String(), caller,
			realtime.Filter{Column: "id", Value: ownRequest.String()}, ""},
		{"purchase request by id as outsider", realtime.TablePurchaseRequests, "id", foreignRequest.String(), caller,
			realtime.Filter{}, apperrors.KindPermission},
		{"purchase request by unknown id", realtime.TablePurchaseRequests, "id", uuid.NewString(), caller,
			realtime.Filter{}, apperrors.KindPermission},
		{"purchase request by id anonymously", realtime.TablePurchaseRequests, "id", ownRequest.String(), uuid.Nil,
			realtime.Filter{}, apperrors.KindUnauthenticated},
		{"purchase requests as buyer", realtime.TablePurchaseRequests, "buyer_id", caller.String(), caller,
			realtime.Filter{Column: "buyer_id", Value: caller.String()}, ""},
		{"purchase requests as someone else", realtime.TablePurchaseRequests, "seller_id", other.String(), caller,
			realtime.Filter{}, apperrors.KindPermission},
		{"unknown column", realtime.TableComments, "content", "x", caller, realtime.Filter{}, apperrors.KindValidation},
		{"malformed value", realtime.TableComments, "idea_id", "not-a-uuid", caller, realtime.Filter{}, apperrors.KindValidation},
		{"comments unfiltered", realtime.TableComments, "", "", caller, realtime.Filter{}, ""},
		{"ideas by owner", realtime.TableIdeas, "user_id", other.String(), caller,
			realtime.Filter{Column: "user_id", Value: other.String()}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := subscriptionFilter(context.Background(), participants, tt.table, tt.column, tt.value, tt.caller)
			if tt.errKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.errKind, apperrors.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, filter)
		})
	}
}

func TestSubscriptionFilterPropagatesLookupErrors(t *testing.T) {
	participants := stubParticipants{err: apperrors.Transient(i18n.KeyTransientError, "load", errors.New("db down"))}

	_, err := subscriptionFilter(context.Background(), participants, realtime.TablePurchaseRequests, "id", uuid.NewString(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindTransient, apperrors.KindOf(err))
}

func TestRedactEvent(t *testing.T) {
	buyer := uuid.New()
	seller := uuid.New()
	ideaID := uuid.NewString()
	purchase := realtime.NewEvent(realtime.TablePurchaseRequests, realtime.OpUpdate, uuid.NewString(), map[string]string{
		"idea_id":   ideaID,
		"buyer_id":  buyer.String(),
		"seller_id": seller.String(),
	})

	assert.Equal(t, purchase, redactEvent(purchase, buyer))
	assert.Equal(t, purchase, redactEvent(purchase, seller))

	for _, caller := range []uuid.UUID{uuid.New(), uuid.Nil} {
		redacted := redactEvent(purchase, caller)
		assert.Equal(t, map[string]string{"idea_id": ideaID}, redacted.Columns)
		assert.Equal(t, purchase.RowID, redacted.RowID)
		assert.Equal(t, purchase.Op, redacted.Op)
	}
	assert.Contains(t, purchase.Columns, "buyer_id", "the published event is left untouched")

	comment := realtime.NewEvent(realtime.TableComments, realtime.OpInsert, uuid.NewString(), map[string]string{
		"idea_id": ideaID,
		"user_id": buyer.String(),
	})
	assert.Equal(t, comment, redactEvent(comment, uuid.New()))
}

// openStream subscribes as caller and returns the scanner positioned after
// the first heartbeat, once the subscription is registered.
func openStream(t *testing.T, ctx context.Context, handler *RealtimeHandler, caller uuid.UUID, path string) *bufio.Scanner {
	t.Helper()

	router := gin.New()
	router.GET("/realtime/:table", func(c *gin.Context) {
		c.Set("user_id", caller.String())
		c.Next()
	}, handler.Stream)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	lines := bufio.NewScanner(resp.Body)
	for lines.Scan() {
		if strings.HasPrefix(lines.Text(), ": heartbeat") {
			break
		}
	}
	return lines
}

func nextData(lines *bufio.Scanner) string {
	for lines.Scan() {
		if strings.HasPrefix(lines.Text(), "data:") {
			return lines.Text()
		}
	}
	return ""
}

func TestStreamDeliversMatchingEvents(t *testing.T) {
	require.NoError(t, i18n.Initialize("ko"))

	broker := realtime.NewMemoryBroker(8)
	defer broker.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	caller := uuid.New()
	handler := NewRealtimeHandler(broker, stubParticipants{}, 20*time.Millisecond)
	lines := openStream(t, ctx, handler, caller, "/realtime/notifications")

	foreign := realtime.NewEvent(realtime.TableNotifications, realtime.OpInsert, uuid.NewString(),
		map[string]string{"user_id": uuid.NewString()})
	mine := realtime.NewEvent(realtime.TableNotifications, realtime.OpInsert, uuid.NewString(),
		map[string]string{"user_id": caller.String()})
	require.NoError(t, broker.Publish(ctx, foreign))
	require.NoError(t, broker.Publish(ctx, mine))

	data := nextData(lines)
	assert.Contains(t, data, mine.RowID)
	assert.NotContains(t, data, foreign.RowID)
}

func TestStreamHidesPurchaseParticipantsFromOutsiders(t *testing.T) {
	require.NoError(t, i18n.Initialize("ko"))

	broker := realtime.NewMemoryBroker(8)
	defer broker.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	buyer := uuid.New()
	seller := uuid.New()
	ideaID := uuid.NewString()
	handler := NewRealtimeHandler(broker, stubParticipants{}, 20*time.Millisecond)

	outsider := openStream(t, ctx, handler, uuid.New(), "/realtime/purchase_requests?column=idea_id&value="+ideaID)
	owner := openStream(t, ctx, handler, seller, "/realtime/purchase_requests?column=idea_id&value="+ideaID)

	event := realtime.NewEvent(realtime.TablePurchaseRequests, realtime.OpInsert, uuid.NewString(), map[string]string{
		"idea_id":   ideaID,
		"buyer_id":  buyer.String(),
		"seller_id": seller.String(),
	})
	require.NoError(t, broker.Publish(ctx, event))

	data := nextData(outsider)
	assert.Contains(t, data, event.RowID)
	assert.Contains(t, data, ideaID)
	assert.NotContains(t, data, buyer.String())
	assert.NotContains(t, data, seller.String())

	data = nextData(owner)
	assert.Contains(t, data, buyer.String())
	assert.Contains(t, data, seller.String())
}

func TestStreamRejectsForeignRequestID(t *testing.T) {
	require.NoError(t, i18n.Initialize("ko"))

	broker := realtime.NewMemoryBroker(8)
	defer broker.Close()

	requestID := uuid.New()
	participants := stubParticipants{requests: map[string][]uuid.UUID{requestID.String(): {uuid.New(), uuid.New()}}}

	router := gin.New()
	router.GET("/realtime/:table", func(c *gin.Context) {
		c.Set("user_id", uuid.NewString())
		c.Next()
	}, NewRealtimeHandler(broker, participants, time.Second).Stream)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/realtime/purchase_requests?column=id&value="+requestID.String(), nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStreamRejectsUnknownTable(t *testing.T) {
	require.NoError(t, i18n.Initialize("ko"))

	broker := realtime.NewMemoryBroker(8)
	defer broker.Close()

	router := gin.New()
	router.GET("/realtime/:table", NewRealtimeHandler(broker, stubParticipants{}, time.Second).Stream)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/realtime/users", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
