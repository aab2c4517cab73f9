package domain

import "time"

type CampaignType string

const (
	CampaignEmail        CampaignType = "email"
	CampaignSMS          CampaignType = "sms"
	CampaignNotification CampaignType = "notification"
)

// Segment selects the customers a campaign targets.
type Segment string

const (
	SegmentAll       Segment = "all"
	SegmentHighValue Segment = "high-value"
	SegmentRepeat    Segment = "repeat"
	SegmentActive    Segment = "active"
	SegmentRecent    Segment = "recent"
)

func (s Segment) Valid() bool {
	switch s {
	case SegmentAll, SegmentHighValue, SegmentRepeat, SegmentActive, SegmentRecent:
		return true
	}
	return false
}

type CampaignStatus string

const (
	CampaignScheduled CampaignStatus = "scheduled"
	// CampaignSending marks a campaign claimed by a scheduler run. It is never
	// picked up again, so a crash mid-dispatch leaves it for an operator.
	CampaignSending CampaignStatus = "sending"
	CampaignSent    CampaignStatus = "sent"
	CampaignFailed  CampaignStatus = "failed"
)

// Campaign is a marketing message queued for a customer segment.
type Campaign struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Type           CampaignType   `json:"type"`
	Subject        string         `json:"subject,omitempty"`
	Message        string         `json:"message"`
	TargetSegment  Segment        `json:"targetSegment"`
	ScheduledDate  time.Time      `json:"scheduledDate"`
	Status         CampaignStatus `json:"status"`
	RecipientCount int            `json:"recipientCount"`
	CreatedBy      string         `json:"createdBy"`
	CreatedAt      time.Time      `json:"createdAt"`
	SentAt         *time.Time     `json:"sentAt,omitempty"`
}

// Recipient is an addressable customer resolved from a segment.
type Recipient struct {
	AccountID string
	FirstName string
	Email     string
}
