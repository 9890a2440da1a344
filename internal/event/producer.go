package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/webstepper/smart-cycle-discounts-sub018/internal/domain"
	pkgkafka "github.com/webstepper/smart-cycle-discounts-sub018/pkg/kafka"
)

// Kafka topic constants for campaign domain events.
const (
	TopicCampaignCreated       = "discounts.campaign.created"
	TopicCampaignUpdated       = "discounts.campaign.updated"
	TopicCampaignDeleted       = "discounts.campaign.deleted"
	TopicCampaignStatusChanged = "discounts.campaign.status_changed"
)

// Aggregate type constant.
const AggregateTypeCampaign = "campaign"

// Source identifier for events originating from this service.
const SourceCampaignEngine = "campaign-engine"

// CampaignEventData is the payload for created/updated/deleted events.
type CampaignEventData struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Priority      int    `json:"priority"`
	Status        string `json:"status"`
	DiscountType  string `json:"discount_type"`
	SelectionType string `json:"selection_type"`
}

// StatusChangedData is the payload for a campaign.status_changed event.
type StatusChangedData struct {
	ID         string `json:"id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
}

// Producer publishes campaign domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func campaignData(c *domain.Campaign) CampaignEventData {
	return CampaignEventData{
		ID:            c.ID,
		Name:          c.Name,
		Priority:      c.Priority,
		Status:        c.Status,
		DiscountType:  c.Discount.Type,
		SelectionType: c.Selection.Type,
	}
}

// PublishCampaignCreated publishes a campaign.created event.
func (p *Producer) PublishCampaignCreated(ctx context.Context, campaign *domain.Campaign) error {
	return p.publish(ctx, TopicCampaignCreated, campaign.ID, campaignData(campaign))
}

// PublishCampaignUpdated publishes a campaign.updated event.
func (p *Producer) PublishCampaignUpdated(ctx context.Context, campaign *domain.Campaign) error {
	return p.publish(ctx, TopicCampaignUpdated, campaign.ID, campaignData(campaign))
}

// PublishCampaignDeleted publishes a campaign.deleted event.
func (p *Producer) PublishCampaignDeleted(ctx context.Context, campaign *domain.Campaign) error {
	return p.publish(ctx, TopicCampaignDeleted, campaign.ID, campaignData(campaign))
}

// PublishStatusChanged publishes a campaign.status_changed event.
func (p *Producer) PublishStatusChanged(ctx context.Context, campaignID, from, to string) error {
	return p.publish(ctx, TopicCampaignStatusChanged, campaignID, StatusChangedData{
		ID:         campaignID,
		FromStatus: from,
		ToStatus:   to,
	})
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, AggregateTypeCampaign, SourceCampaignEngine, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published campaign event",
		slog.String("topic", topic),
		slog.String("campaign_id", aggregateID),
	)

	return nil
}
