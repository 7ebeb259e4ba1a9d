package services

import (
	"sort"
	"strings"
	"time"

	"local-events-aggregator/internal/models"
)

// SortField selects the sort key for event results.
type SortField string

// SortField constants
const (
	SortByDate     SortField = "date"
	SortByName     SortField = "name"
	SortByDistance SortField = "distance"
)

// SortEngine orders event lists. All sorts are stable so repeated identical
// queries return identical orderings.
type SortEngine struct {
	now func() time.Time
}

// NewSortEngine creates a sort engine using the wall clock.
func NewSortEngine() *SortEngine {
	return &SortEngine{now: time.Now}
}

// NewSortEngineAt creates a sort engine with an injected clock for tests.
func NewSortEngineAt(now func() time.Time) *SortEngine {
	return &SortEngine{now: now}
}

// SortDefault applies the aggregated-search ordering: events happening today
// come first regardless of distance, then date ascending, then distance
// ascending when both events carry one.
func (s *SortEngine) SortDefault(events []models.Event) {
	today := startOfDay(s.now())

	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]

		aDate, aErr := models.ParseEventDate(a.Date)
		bDate, bErr := models.ParseEventDate(b.Date)
		if aErr != nil || bErr != nil {
			// Unparseable dates keep their input position.
			return false
		}

		aToday := aDate.Equal(today)
		bToday := bDate.Equal(today)
		if aToday != bToday {
			return aToday
		}

		if !aDate.Equal(bDate) {
			return aDate.Before(bDate)
		}

		if a.Distance != nil && b.Distance != nil {
			return *a.Distance < *b.Distance
		}
		return false
	})
}

// Sort orders events by the given field and direction. Events missing the
// requested key keep their relative input order at the end of the list.
func (s *SortEngine) Sort(events []models.Event, by SortField, ascending bool) {
	less := s.lessFunc(by)
	sort.SliceStable(events, func(i, j int) bool {
		if ascending {
			return less(events[i], events[j])
		}
		return less(events[j], events[i])
	})
}

func (s *SortEngine) lessFunc(by SortField) func(a, b models.Event) bool {
	switch by {
	case SortByName:
		return func(a, b models.Event) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	case SortByDistance:
		return func(a, b models.Event) bool {
			if a.Distance == nil || b.Distance == nil {
				return a.Distance != nil
			}
			return *a.Distance < *b.Distance
		}
	default:
		return func(a, b models.Event) bool {
			aDate, aErr := models.ParseEventDate(a.Date)
			bDate, bErr := models.ParseEventDate(b.Date)
			if aErr != nil || bErr != nil {
				return aErr == nil
			}
			return aDate.Before(bDate)
		}
	}
}
