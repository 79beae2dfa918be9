package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/ideamarket-backend/internal/i18n"
	"github.com/javajoker/ideamarket-backend/internal/models"
)

func TestCanViewFullContent(t *testing.T) {
	owner, viewer := uuid.New(), uuid.New()
	priced := &models.Idea{BaseModel: models.BaseModel{ID: uuid.New()}, UserID: owner, Price: price(1000)}
	free := &models.Idea{BaseModel: models.BaseModel{ID: uuid.New()}, UserID: owner, IsFree: true}

	pending := &models.PurchaseRequest{IdeaID: priced.ID, BuyerID: viewer, Status: models.PurchaseStatusPending}
	approved := &models.PurchaseRequest{IdeaID: priced.ID, BuyerID: viewer, Status: models.PurchaseStatusApproved}
	otherIdea := &models.PurchaseRequest{IdeaID: uuid.New(), BuyerID: viewer, Status: models.PurchaseStatusApproved}

	assert.True(t, CanViewFullContent(free, uuid.Nil, nil))
	assert.True(t, CanViewFullContent(priced, owner, nil))
	assert.False(t, CanViewFullContent(priced, uuid.Nil, nil))
	assert.False(t, CanViewFullContent(priced, viewer, nil))
	assert.False(t, CanViewFullContent(priced, viewer, pending))
	assert.True(t, CanViewFullContent(priced, viewer, approved))
	assert.False(t, CanViewFullContent(priced, viewer, otherIdea))
	assert.False(t, CanViewFullContent(nil, viewer, approved))
}

func TestCanViewFullContentIsMonotonicOverApproval(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seller := e.user(t, "seller@example.com", "Seller")
	buyer := e.user(t, "buyer@example.com", "Buyer")
	idea := e.idea(t, seller.ID, "Priced", price(1000))

	check := func() bool {
		request, err := e.access.RequestForViewer(ctx, idea.ID, buyer.ID)
		require.NoError(t, err)
		return CanViewFullContent(idea, buyer.ID, request)
	}

	assert.False(t, check())

	request, _, err := e.purchases.CreateRequest(ctx, idea.ID.String(), buyer.ID)
	require.NoError(t, err)
	assert.False(t, check())

	_, err = e.purchases.ConfirmPayment(ctx, request.ID.String(), buyer.ID)
	require.NoError(t, err)
	assert.False(t, check())

	_, err = e.purchases.Approve(ctx, request.ID.String(), seller.ID)
	require.NoError(t, err)
	assert.True(t, check())

	_, err = e.purchases.Reject(ctx, request.ID.String(), seller.ID)
	require.Error(t, err)
	assert.True(t, check())
}

func TestCanAccessIdea(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seller := e.user(t, "seller@example.com", "Seller")
	buyer := e.user(t, "buyer@example.com", "Buyer")
	third := e.user(t, "third@example.com", "Third")
	idea := e.idea(t, seller.ID, "Priced", price(1000))

	decision, err := e.access.CanAccessIdea(ctx, idea, third.ID)
	require.NoError(t, err)
	assert.True(t, decision.Allowed, "unsold ideas are open to everyone")

	request, _, err := e.purchases.CreateRequest(ctx, idea.ID.String(), buyer.ID)
	require.NoError(t, err)
	_, err = e.purchases.ConfirmPayment(ctx, request.ID.String(), buyer.ID)
	require.NoError(t, err)
	_, err = e.purchases.Approve(ctx, request.ID.String(), seller.ID)
	require.NoError(t, err)

	for name, viewer := range map[string]uuid.UUID{"owner": seller.ID, "buyer": buyer.ID} {
		decision, err := e.access.CanAccessIdea(ctx, idea, viewer)
		require.NoError(t, err)
		assert.True(t, decision.Allowed, name)
	}

	decision, err = e.access.CanAccessIdea(ctx, idea, third.ID)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, i18n.KeyIdeaSoldToAnother, decision.ReasonKey)

	decision, err = e.access.CanAccessIdea(ctx, idea, uuid.Nil)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}
