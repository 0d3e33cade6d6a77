package channel

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/zulandar/switchboard/internal/message"
	"github.com/zulandar/switchboard/internal/models"
)

// Fallback delivers by appending the rendered payload to the durable
// per-endpoint inbox. Once storage is reachable it always succeeds, which
// makes it the backstop after primary exhausts its retries.
//
// Each endpoint's rows are independent, so unlike Primary this channel is
// safe for fully concurrent use.
type Fallback struct {
	db *gorm.DB
}

// NewFallback creates a Fallback channel over the inbox database.
func NewFallback(db *gorm.DB) *Fallback {
	return &Fallback{db: db}
}

// Deliver appends the payload to endpointID's inbox and returns once the
// write is durable.
func (f *Fallback) Deliver(ctx context.Context, endpointID string, msg *message.Message, payload string) error {
	entry := models.InboxEntry{
		EndpointID:  endpointID,
		Sender:      msg.Sender,
		MessageUUID: msg.ID,
		Priority:    msg.Priority.String(),
		Payload:     payload,
		DeliveredAt: time.Now(),
	}
	if err := f.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Inbox returns all stored entries for an endpoint, oldest first.
func Inbox(db *gorm.DB, endpointID string) ([]models.InboxEntry, error) {
	if endpointID == "" {
		return nil, fmt.Errorf("channel: endpointID is required")
	}
	var entries []models.InboxEntry
	if err := db.Where("endpoint_id = ?", endpointID).
		Order("delivered_at ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("channel: inbox %s: %w", endpointID, err)
	}
	return entries, nil
}

// Prune deletes inbox entries delivered before cutoff and returns the
// number of rows removed.
func Prune(db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.Where("delivered_at < ?", cutoff).Delete(&models.InboxEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("channel: prune inbox: %w", result.Error)
	}
	return result.RowsAffected, nil
}
