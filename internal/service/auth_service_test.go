package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/ticket-tracker/internal/auth"
	"github.com/spec-kit/ticket-tracker/internal/config"
	"github.com/spec-kit/ticket-tracker/internal/events"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

func TestAuthServiceLogin(t *testing.T) {
	t.Parallel()

	hash, err := auth.HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)

	cfg := config.Config{
		App:  config.AppConfig{Name: "tracker-test"},
		Auth: config.AuthConfig{JWTSecret: "secret", PasswordHash: hash, Owner: "ana", AccessTokenTTLMinutes: 5},
	}
	svc := NewAuthService(cfg)
	require.True(t, svc.Enabled())

	token, exp, err := svc.Login(context.Background(), "s3cret")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), exp, time.Minute)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ana", claims.Owner())

	_, _, err = svc.Login(context.Background(), "wrong")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	disabled := NewAuthService(config.Config{})
	_, _, err = disabled.Login(context.Background(), "anything")
	assert.True(t, apperrors.IsInvalidOperation(err))
}

type fakePublisher struct {
	mu       sync.Mutex
	keys     []string
	failWith error
}

func (p *fakePublisher) Publish(_ context.Context, routingKey string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return p.failWith
	}
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func TestNotificationServiceForwardsEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dispatcher := events.NewInMemoryDispatcher()
	publisher := &fakePublisher{}
	NewNotificationService(dispatcher, publisher, nil).RegisterHandlers()

	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventTicketCreated, "t1", nil)))
	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventTemplateDeleted, "tpl", nil)))
	assert.Equal(t, []string{"ticket.created", "template.deleted"}, publisher.keys)

	publisher.failWith = errors.New("broker down")
	err := dispatcher.Publish(ctx, events.NewEvent(events.EventTicketDeleted, "t1", nil))
	assert.ErrorContains(t, err, "broker down")

	logOnly := events.NewInMemoryDispatcher()
	NewNotificationService(logOnly, nil, nil).RegisterHandlers()
	assert.NoError(t, logOnly.Publish(ctx, events.NewEvent(events.EventTicketUpdated, "t1", nil)))
}
