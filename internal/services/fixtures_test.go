package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/ideamarket-backend/internal/database/dbtest"
	"github.com/javajoker/ideamarket-backend/internal/i18n"
	"github.com/javajoker/ideamarket-backend/internal/models"
	"github.com/javajoker/ideamarket-backend/internal/realtime"
)

type recordedTransition struct {
	transition string
	outcome    string
}

type fakeRecorder struct {
	mu            sync.Mutex
	transitions   []recordedTransition
	notifications map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{notifications: make(map[string]int)}
}

func (r *fakeRecorder) RecordTransition(transition, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, recordedTransition{transition, outcome})
}

func (r *fakeRecorder) RecordNotification(notificationType, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications[notificationType+"/"+outcome]++
}

func (r *fakeRecorder) count(transition, outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.transitions {
		if t.transition == transition && t.outcome == outcome {
			n++
		}
	}
	return n
}

type fakeImageStore struct {
	mu      sync.Mutex
	uploads []string
}

func (f *fakeImageStore) UploadImage(ctx context.Context, ownerID uuid.UUID, image string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, image)
	return fmt.Sprintf("https://cdn.test/%s/%s", ownerID, image), nil
}

// env wires every service against a private sqlite database.
type env struct {
	db            *gorm.DB
	broker        *realtime.MemoryBroker
	recorder      *fakeRecorder
	images        *fakeImageStore
	users         *UserService
	notifications *NotificationService
	access        *AccessService
	ideas         *IdeaService
	purchases     *PurchaseService
	comments      *CommentService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	require.NoError(t, i18n.Initialize("ko"))

	db := dbtest.Open(t)
	broker := realtime.NewMemoryBroker(16)
	t.Cleanup(func() { broker.Close() })

	e := &env{
		db:       db,
		broker:   broker,
		recorder: newFakeRecorder(),
		images:   &fakeImageStore{},
	}
	e.users = NewUserService(db)
	e.notifications = NewNotificationService(db, broker, e.recorder)
	e.access = NewAccessService(db)
	e.ideas = NewIdeaService(db, e.images, broker, e.access)
	e.purchases = NewPurchaseService(db, e.notifications, e.users, broker, e.recorder, "ko")
	e.comments = NewCommentService(db, broker)
	return e
}

func (e *env) user(t *testing.T, email, displayName string) *models.User {
	t.Helper()
	user := &models.User{Email: email, DisplayName: displayName, PasswordHash: "x"}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *env) idea(t *testing.T, owner uuid.UUID, title string, price *int64, tags ...string) *models.Idea {
	t.Helper()
	idea, err := e.ideas.Create(context.Background(), owner, &CreateIdeaRequest{
		Title:            title,
		ShortDescription: title + " in short",
		Content:          title + " full content",
		IsFree:           price == nil,
		Price:            price,
		Tags:             tags,
	})
	require.NoError(t, err)
	return idea
}

func (e *env) notificationsFor(t *testing.T, userID uuid.UUID) []models.Notification {
	t.Helper()
	var list []models.Notification
	require.NoError(t, e.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&list).Error)
	return list
}

func price(v int64) *int64 {
	return &v
}
