// Package notify renders and delivers customer emails.
package notify

// Message is one rendered email. It is also the unit stored on the queue.
type Message struct {
	ID       string `json:"id"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTML     string `json:"html"`
	Template string `json:"template"`
	Attempt  int    `json:"attempt"`
}

// Template names, also used as metric labels.
const (
	TemplateBookingConfirmation = "booking_confirmation"
	TemplatePasswordReset       = "password_reset"
	TemplateCampaign            = "campaign"
)

// DeadLetterKey is the list that receives messages out of retries.
func DeadLetterKey(queueKey string) string {
	return queueKey + ":dead"
}

// DelayedKey is the sorted set holding retries, scored by due time in
// unix milliseconds.
func DelayedKey(queueKey string) string {
	return queueKey + ":delayed"
}
