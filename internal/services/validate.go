package services

import (
	"log"
	"time"

	"local-events-aggregator/internal/models"
)

// Validator drops structurally invalid and stale events. It is used as a
// filter predicate: invalid events are silently excluded, which shows up to
// the caller as fewer results, never as an error.
type Validator struct {
	now func() time.Time
}

// NewValidator creates a validator using the wall clock.
func NewValidator() *Validator {
	return &Validator{now: time.Now}
}

// NewValidatorAt creates a validator with an injected clock for tests.
func NewValidatorAt(now func() time.Time) *Validator {
	return &Validator{now: now}
}

// IsValid reports whether an event has the required fields, resolvable
// coordinates, and a date that is today or later. Events whose date string
// does not parse are kept; a provider quirk should not cost us the record.
func (v *Validator) IsValid(event models.Event) bool {
	if event.ID == "" || event.Title == "" || event.Date == "" {
		log.Printf("validator: dropping event with missing fields (id=%q title=%q)", event.ID, event.Title)
		return false
	}

	if event.Location.Latitude == 0 && event.Location.Longitude == 0 {
		log.Printf("validator: dropping event without coordinates: %s", event.Title)
		return false
	}

	eventDate, err := models.ParseEventDate(event.Date)
	if err != nil {
		return true
	}

	today := startOfDay(v.now())
	if eventDate.Before(today) {
		log.Printf("validator: dropping past event %q on %s", event.Title, event.Date)
		return false
	}

	return true
}

// FilterValid returns only the events that pass IsValid, preserving order.
func (v *Validator) FilterValid(events []models.Event) []models.Event {
	valid := make([]models.Event, 0, len(events))
	for _, event := range events {
		if v.IsValid(event) {
			valid = append(valid, event)
		}
	}
	return valid
}

// startOfDay truncates a time to midnight in its location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
