package booking

import "github.com/google/uuid"

// Item is a booked accommodation, together with the number of persons
// staying in it.
type Item struct {
	AccommodationID uuid.UUID `json:"sleepingAccommodationId"`
	PersonCount     int       `json:"personCount"`
}

// ChangeType describes how a booked accommodation changed.
type ChangeType string

// Possible accommodation change types.
const (
	ChangeAdded    ChangeType = "Added"
	ChangeRemoved  ChangeType = "Removed"
	ChangeModified ChangeType = "Modified"
)

// AccommodationChange describes the change of a single booked accommodation.
//
// Person counts are 0 for the side of the change where the accommodation
// is not booked (previous for Added, new for Removed).
type AccommodationChange struct {
	AccommodationID     uuid.UUID  `json:"sleepingAccommodationId"`
	PreviousPersonCount int        `json:"previousPersonCount"`
	NewPersonCount      int        `json:"newPersonCount"`
	ChangeType          ChangeType `json:"changeType"`
}

// TotalPersons returns the sum of persons over all the items.
func TotalPersons(items []Item) int {
	total := 0
	for _, item := range items {
		total += item.PersonCount
	}

	return total
}

// diffItems lists removed accommodations first, in previous order,
// then added and modified ones, in next order.
func diffItems(previous, next []Item) []AccommodationChange {
	previousCounts := make(map[uuid.UUID]int, len(previous))
	for _, item := range previous {
		previousCounts[item.AccommodationID] = item.PersonCount
	}

	nextCounts := make(map[uuid.UUID]int, len(next))
	for _, item := range next {
		nextCounts[item.AccommodationID] = item.PersonCount
	}

	var changes []AccommodationChange

	for _, item := range previous {
		if _, ok := nextCounts[item.AccommodationID]; !ok {
			changes = append(changes, AccommodationChange{
				AccommodationID:     item.AccommodationID,
				PreviousPersonCount: item.PersonCount,
				NewPersonCount:      0,
				ChangeType:          ChangeRemoved,
			})
		}
	}

	for _, item := range next {
		previousCount, ok := previousCounts[item.AccommodationID]

		switch {
		case !ok:
			changes = append(changes, AccommodationChange{
				AccommodationID:     item.AccommodationID,
				PreviousPersonCount: 0,
				NewPersonCount:      item.PersonCount,
				ChangeType:          ChangeAdded,
			})
		case previousCount != item.PersonCount:
			changes = append(changes, AccommodationChange{
				AccommodationID:     item.AccommodationID,
				PreviousPersonCount: previousCount,
				NewPersonCount:      item.PersonCount,
				ChangeType:          ChangeModified,
			})
		}
	}

	return changes
}

// applyChanges returns a new slice of items with the changes applied:
// modified items keep their position, added items are appended.
func applyChanges(items []Item, changes []AccommodationChange) []Item {
	result := make([]Item, 0, len(items)+len(changes))
	result = append(result, items...)

	for _, change := range changes {
		idx := -1

		for i, item := range result {
			if item.AccommodationID == change.AccommodationID {
				idx = i
				break
			}
		}

		switch change.ChangeType {
		case ChangeAdded:
			if idx < 0 {
				result = append(result, Item{AccommodationID: change.AccommodationID, PersonCount: change.NewPersonCount})
			}
		case ChangeModified:
			if idx >= 0 {
				result[idx].PersonCount = change.NewPersonCount
			}
		case ChangeRemoved:
			if idx >= 0 {
				result = append(result[:idx], result[idx+1:]...)
			}
		}
	}

	return result
}
