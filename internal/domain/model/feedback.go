package model

import "time"

// Feedback is a message from the contact form, queued for delivery.
type Feedback struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Subject     string    `json:"subject"`
	Message     string    `json:"message"`
	SubmittedAt time.Time `json:"submittedAt"`
	Attempts    int       `json:"attempts,omitempty"`
}
