package dto

import "github.com/spec-kit/tourism-service/internal/domain"

// CampaignRequest schedules a marketing campaign.
type CampaignRequest struct {
	Name          string              `json:"name" validate:"required,max=200"`
	Type          domain.CampaignType `json:"type" validate:"required,oneof=email sms notification"`
	Subject       string              `json:"subject" validate:"required_if=Type email"`
	Message       string              `json:"message" validate:"required"`
	TargetSegment domain.Segment      `json:"targetSegment" validate:"omitempty,oneof=all high-value repeat active recent"`
	ScheduledDate string              `json:"scheduledDate"`
}
