package services

import (
	"testing"
	"time"

	"local-events-aggregator/internal/models"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestValidatorIsValid(t *testing.T) {
	now := time.Date(2025, 6, 10, 15, 30, 0, 0, time.Local)
	v := NewValidatorAt(fixedClock(now))

	good := models.Event{ID: "e1", Title: "Jazz Night", Date: "2025-06-14"}
	good.SetCoordinates(40.0, -73.0)
	if !v.IsValid(good) {
		t.Error("Expected complete future event to be valid")
	}

	// An event happening today is still valid until midnight
	today := good
	today.Date = "2025-06-10"
	if !v.IsValid(today) {
		t.Error("Expected today's event to be valid")
	}

	missingTitle := good
	missingTitle.Title = ""
	if v.IsValid(missingTitle) {
		t.Error("Expected event without title to be invalid")
	}

	missingID := good
	missingID.ID = ""
	if v.IsValid(missingID) {
		t.Error("Expected event without ID to be invalid")
	}

	missingDate := good
	missingDate.Date = ""
	if v.IsValid(missingDate) {
		t.Error("Expected event without date to be invalid")
	}

	noCoords := models.Event{ID: "e2", Title: "Ghost Venue", Date: "2025-06-14"}
	if v.IsValid(noCoords) {
		t.Error("Expected event with zero coordinates to be invalid")
	}

	past := good
	past.Date = "2025-06-09"
	if v.IsValid(past) {
		t.Error("Expected yesterday's event to be invalid")
	}

	// A date we cannot parse is kept rather than risking a false drop
	odd := good
	odd.Date = "every Saturday"
	if !v.IsValid(odd) {
		t.Error("Expected event with unparseable date to be kept")
	}
}

func TestFilterValid(t *testing.T) {
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, time.Local)
	v := NewValidatorAt(fixedClock(now))

	good := models.Event{ID: "e1", Title: "Keeper", Date: "2025-06-20"}
	good.SetCoordinates(40.0, -73.0)
	bad := models.Event{ID: "", Title: "Dropped", Date: "2025-06-20"}
	bad.SetCoordinates(40.0, -73.0)

	result := v.FilterValid([]models.Event{bad, good, bad})
	if len(result) != 1 || result[0].ID != "e1" {
		t.Errorf("Expected only the valid event to survive, got %d events", len(result))
	}
}
