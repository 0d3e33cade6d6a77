// Package message defines the canonical message shape and its wire rendering.
package message

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyBody is returned when a message body is blank after trimming.
var ErrEmptyBody = errors.New("message: body is empty")

// RecipientBroadcast is the reserved recipient marker for fan-out sends.
const RecipientBroadcast = "broadcast"

// Priority orders messages by urgency.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityUrgent
)

// String returns the canonical upper-case name used on the wire.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "LOW"
	case PriorityHigh:
		return "HIGH"
	case PriorityUrgent:
		return "URGENT"
	default:
		return "NORMAL"
	}
}

// ParsePriority maps a name to a Priority, case-insensitively.
// Unknown names default to NORMAL.
func ParsePriority(s string) Priority {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return PriorityLow
	case "HIGH":
		return PriorityHigh
	case "URGENT":
		return PriorityUrgent
	default:
		return PriorityNormal
	}
}

// Message is the immutable unit of communication. Construct with New;
// never mutate after construction.
type Message struct {
	ID          string
	Sender      string
	Recipient   string
	Body        string
	Priority    Priority
	Tags        []string // normalized: trimmed, deduplicated, sorted
	CreatedAt   time.Time
	Fingerprint string
}

// New constructs a Message, normalizing tags and computing the
// deduplication fingerprint.
func New(sender, recipient, body string, priority Priority, tags []string) (*Message, error) {
	if sender == "" {
		return nil, fmt.Errorf("message: sender is required")
	}
	if recipient == "" {
		return nil, fmt.Errorf("message: recipient is required")
	}
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyBody
	}

	normalized := normalizeTags(tags)
	return &Message{
		ID:          uuid.NewString(),
		Sender:      sender,
		Recipient:   recipient,
		Body:        body,
		Priority:    priority,
		Tags:        normalized,
		CreatedAt:   time.Now(),
		Fingerprint: Fingerprint(sender, recipient, body, normalized),
	}, nil
}

// HasTag reports whether the message carries the given tag.
func (m *Message) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Fingerprint computes the deterministic content hash used for
// deduplication. Timestamp and priority are deliberately excluded: two
// sends of the same content to the same target are duplicates no matter
// when or how urgently they were issued.
func Fingerprint(sender, recipient, body string, tags []string) string {
	h := sha256.New()
	h.Write([]byte(sender))
	h.Write([]byte{0})
	h.Write([]byte(recipient))
	h.Write([]byte{0})
	h.Write([]byte(body))
	h.Write([]byte{0})
	// Tags get the same NUL separator as the outer fields; a comma could
	// appear inside a tag and make distinct tag sets collide.
	h.Write([]byte(strings.Join(normalizeTags(tags), "\x00")))
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// Render produces the exact textual payload transferred by the delivery
// channels. Both channels deliver this same byte sequence, so fingerprints
// computed from rendered output match regardless of delivery path.
func Render(m *Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s -> %s", m.Priority, m.Sender, m.Recipient)
	if len(m.Tags) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(m.Tags, ","))
	}
	b.WriteString(": ")
	b.WriteString(m.Body)
	return b.String()
}

// normalizeTags trims, drops empties, deduplicates, and sorts so that tag
// insertion order never affects fingerprints or rendering.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
