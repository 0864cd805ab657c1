package domain

import "time"

// Tour is a bookable product that customers rate.
type Tour struct {
	ID          int
	Title       string
	Description *string
	CreatedAt   time.Time
}
