package domain

import "time"

// CampaignStats tracks simulated delivery outcomes for a campaign.
type CampaignStats struct {
	Sent         int `json:"sent"`
	Failed       int `json:"failed"`
	AudienceSize int `json:"audienceSize"`
}

// Campaign is a message sent to the audience of a segment.
type Campaign struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	SegmentID string        `json:"segmentId"`
	Message   string        `json:"message"`
	Stats     CampaignStats `json:"stats"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Delivery statuses recorded in the communication log.
const (
	DeliverySent   = "SENT"
	DeliveryFailed = "FAILED"
)

// CommunicationLog records one delivery attempt to one customer.
type CommunicationLog struct {
	ID            string    `json:"id"`
	CampaignID    string    `json:"campaignId"`
	CustomerID    string    `json:"customerId"`
	CustomerName  string    `json:"customerName,omitempty"`
	CustomerEmail string    `json:"customerEmail,omitempty"`
	Status        string    `json:"status"`
	Message       string    `json:"message"`
	SentAt        time.Time `json:"sentAt"`
}
