package services

import "local-events-aggregator/internal/models"

// DedupeEvents collapses events that represent the same real-world occurrence
// across providers. The identity tuple is (title, date, latitude, longitude),
// compared exactly; near-duplicate titles with formatting differences across
// providers are intentionally not merged. First occurrence wins and input
// order is preserved, so the result is deterministic and the function is
// idempotent.
func DedupeEvents(events []models.Event) []models.Event {
	if len(events) <= 1 {
		return events
	}

	unique := make([]models.Event, 0, len(events))
	seen := make(map[string]bool, len(events))

	for _, event := range events {
		key := event.DedupeKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, event)
	}

	return unique
}
