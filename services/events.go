package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/olaysco/ecomm-api/models"
	"go.uber.org/zap"
)

const (
	EventProductCreated = "product_created"
	EventProductUpdated = "product_updated"
	EventProductDeleted = "product_deleted"
)

// ProductEvent is the SNS payload published after every successful write.
type ProductEvent struct {
	EventType  string          `json:"event_type"`
	ProductID  string          `json:"product_id"`
	Slug       string          `json:"slug,omitempty"`
	Version    int64           `json:"version"`
	OccurredAt time.Time       `json:"occurred_at"`
	Product    *models.Product `json:"product,omitempty"`
}

func (s *productService) publishEvent(ctx context.Context, eventType, productID string, product *models.Product) {
	if s.publisher == nil || s.topicArn == "" {
		return
	}

	event := ProductEvent{
		EventType:  eventType,
		ProductID:  productID,
		OccurredAt: time.Now().UTC(),
		Product:    product,
	}
	if product != nil {
		event.Slug = product.Slug
		event.Version = product.Version
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to marshal product event", zap.Error(err), zap.String("product_id", productID))
		return
	}

	if err := s.publisher.Publish(ctx, s.topicArn, eventType, payload); err != nil {
		s.logger.Warn("Failed to publish product event",
			zap.Error(err),
			zap.String("event_type", eventType),
			zap.String("product_id", productID),
		)
	}
}
