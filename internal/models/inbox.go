package models

import "time"

// InboxEntry is one durably stored fallback delivery. Rows are append-only:
// the fallback channel only ever inserts, and the retention prune only ever
// deletes expired rows.
type InboxEntry struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	EndpointID  string `gorm:"size:64;not null;index"`
	Sender      string `gorm:"size:64;not null"`
	MessageUUID string `gorm:"size:36;uniqueIndex"`
	Priority    string `gorm:"size:8;default:NORMAL"`
	Payload     string `gorm:"type:text;not null"`
	DeliveredAt time.Time `gorm:"index"`
}
