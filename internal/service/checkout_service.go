package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/broker"
	"storefront/internal/checkout"
	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// CheckoutPlatform opens checkout sessions on the commerce platform
type CheckoutPlatform interface {
	InitCheckout(ctx context.Context, req *models.CheckoutRequest) (*models.CheckoutResult, error)
}

// AttemptRecorder persists checkout attempts
type AttemptRecorder interface {
	CreateCheckoutAttempt(ctx context.Context, attempt *models.CheckoutAttempt) error
}

// CheckoutEvents publishes checkout outcomes
type CheckoutEvents interface {
	PublishCheckoutInitiated(ctx context.Context, event *models.CheckoutInitiatedEvent) error
	PublishCheckoutFailed(ctx context.Context, event *models.CheckoutFailedEvent) error
}

// CheckoutService submits carts to the platform and reacts to the result.
// It never mutates the cart, so a failed attempt can be retried as is.
type CheckoutService struct {
	platform       CheckoutPlatform
	locker         Locker
	attempts       AttemptRecorder
	events         CheckoutEvents
	defaultStoreID string
	logger         *zap.Logger
}

// NewCheckoutService creates a checkout service. attempts and events may be nil.
func NewCheckoutService(
	platform CheckoutPlatform,
	locker Locker,
	attempts AttemptRecorder,
	events CheckoutEvents,
	defaultStoreID string,
) *CheckoutService {
	return &CheckoutService{
		platform:       platform,
		locker:         locker,
		attempts:       attempts,
		events:         events,
		defaultStoreID: defaultStoreID,
		logger:         util.GetLogger(),
	}
}

// Checkout validates cart, opens a checkout session for the store cfg
// describes and returns its location.
func (s *CheckoutService) Checkout(ctx context.Context, sessionID string, cart models.Cart, cfg *models.Configuration) (*models.CheckoutResult, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Checkout")
	defer span.End()

	if !cfg.Features.Checkout {
		util.CheckoutAttemptsTotal.WithLabelValues("disabled").Inc()
		return nil, models.ErrCheckoutDisabled
	}

	storeID := cfg.Store.StoreID
	if storeID == "" {
		storeID = s.defaultStoreID
	}
	req, err := checkout.NewRequest(cart, storeID, cfg.Store.ActivePromotionIDs())
	if err != nil {
		util.CheckoutAttemptsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	release, ok, err := s.locker.TryLock(ctx, "checkout:"+cart.Token)
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to acquire checkout lock: %w", err)
	}
	if !ok {
		util.CheckoutAttemptsTotal.WithLabelValues("in_progress").Inc()
		return nil, models.ErrCheckoutInProgress
	}
	defer release()

	result, err := s.platform.InitCheckout(ctx, req)
	if err != nil {
		util.RecordError(span, err)
		s.recordFailure(ctx, sessionID, cart, err)
		return nil, err
	}

	s.recordSuccess(ctx, sessionID, cart, storeID, result)
	return result, nil
}

func (s *CheckoutService) recordSuccess(ctx context.Context, sessionID string, cart models.Cart, storeID string, result *models.CheckoutResult) {
	util.CheckoutAttemptsTotal.WithLabelValues("initiated").Inc()
	s.logger.Info("Checkout initiated",
		zap.String("session_id", sessionID),
		zap.Int("lines", len(cart.Lines)),
		zap.Int64("total", cart.Total))

	s.saveAttempt(ctx, &models.CheckoutAttempt{
		SessionID:   sessionID,
		CartToken:   cart.Token,
		LineCount:   len(cart.Lines),
		TotalAmount: cart.Total,
		Status:      models.CheckoutStatusInitiated,
		CheckoutURL: result.CheckoutURL,
	})

	if s.events != nil {
		event := &models.CheckoutInitiatedEvent{
			BaseEvent:   broker.NewBaseEvent(models.EventTypeCheckoutInitiated),
			SessionID:   sessionID,
			CartToken:   cart.Token,
			StoreID:     storeID,
			LineCount:   len(cart.Lines),
			ItemCount:   cart.Count,
			TotalAmount: cart.Total,
			CheckoutURL: result.CheckoutURL,
		}
		if err := s.events.PublishCheckoutInitiated(ctx, event); err != nil {
			s.logger.Error("Failed to publish CheckoutInitiated event", zap.Error(err))
		}
	}
}

func (s *CheckoutService) recordFailure(ctx context.Context, sessionID string, cart models.Cart, cause error) {
	status := models.CheckoutStatusFailed
	if errors.Is(cause, models.ErrCheckoutRejected) {
		status = models.CheckoutStatusRejected
	}
	util.CheckoutAttemptsTotal.WithLabelValues(strings.ToLower(status)).Inc()
	s.logger.Error("Checkout failed",
		zap.String("session_id", sessionID),
		zap.String("status", status),
		zap.Error(cause))

	s.saveAttempt(ctx, &models.CheckoutAttempt{
		SessionID:   sessionID,
		CartToken:   cart.Token,
		LineCount:   len(cart.Lines),
		TotalAmount: cart.Total,
		Status:      status,
		Error:       cause.Error(),
	})

	if s.events != nil {
		event := &models.CheckoutFailedEvent{
			BaseEvent: broker.NewBaseEvent(models.EventTypeCheckoutFailed),
			SessionID: sessionID,
			CartToken: cart.Token,
			Reason:    cause.Error(),
		}
		if err := s.events.PublishCheckoutFailed(ctx, event); err != nil {
			s.logger.Error("Failed to publish CheckoutFailed event", zap.Error(err))
		}
	}
}

func (s *CheckoutService) saveAttempt(ctx context.Context, attempt *models.CheckoutAttempt) {
	if s.attempts == nil {
		return
	}
	if err := s.attempts.CreateCheckoutAttempt(ctx, attempt); err != nil {
		s.logger.Error("Failed to record checkout attempt", zap.Error(err))
	}
}
