package services

import (
	"context"
	"sort"

	"github.com/hkipo-research/hkipo/models"
)

// UpcomingSource returns the offerings currently open for subscription
type UpcomingSource interface {
	FetchUpcoming(ctx context.Context) ([]models.IPOListing, error)
}

// CalendarService groups open offerings into subscription rounds
type CalendarService struct {
	upcoming UpcomingSource
}

// NewCalendarService creates a calendar over the upcoming list
func NewCalendarService(upcoming UpcomingSource) *CalendarService {
	return &CalendarService{upcoming: upcoming}
}

// FetchCalendar returns the rounds ordered by deadline
func (s *CalendarService) FetchCalendar(ctx context.Context) ([]models.CalendarRound, error) {
	listings, err := s.upcoming.FetchUpcoming(ctx)
	if err != nil {
		return nil, err
	}
	return GroupByDeadline(listings), nil
}

// GroupByDeadline sorts listings by deadline (stable) and groups equal deadlines
func GroupByDeadline(listings []models.IPOListing) []models.CalendarRound {
	sorted := make([]models.IPOListing, len(listings))
	copy(sorted, listings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Deadline < sorted[j].Deadline
	})

	rounds := []models.CalendarRound{}
	for _, listing := range sorted {
		entry := models.CalendarEntry{
			Code:        listing.Code,
			Name:        listing.Name,
			EntryFee:    listing.EntryFee,
			ListingDate: listing.ListingDate,
		}
		if n := len(rounds); n > 0 && rounds[n-1].Deadline == listing.Deadline {
			rounds[n-1].IPOs = append(rounds[n-1].IPOs, entry)
			continue
		}
		rounds = append(rounds, models.CalendarRound{
			Deadline: listing.Deadline,
			IPOs:     []models.CalendarEntry{entry},
		})
	}
	return rounds
}
