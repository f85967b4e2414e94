package store

import "context"

// Placeholder labels shown when a week has no collection yet.
const (
	UnsetCurrentWeekLabel = "未设置本周"
	UnsetNextWeekLabel    = "未设置下周"
)

// Weeks is the homepage read model.
type Weeks struct {
	Current Collection `json:"current"`
	Next    Collection `json:"next"`
}

// SelectWeeks picks "this week" and "next week" from collections ordered
// newest first: the newest is next week and the second newest is this week.
// A lone collection is this week; missing weeks become empty placeholders.
func SelectWeeks(newestFirst []Collection) Weeks {
	w := Weeks{
		Current: Collection{WeekLabel: UnsetCurrentWeekLabel, Songs: []Song{}},
		Next:    Collection{WeekLabel: UnsetNextWeekLabel, Songs: []Song{}},
	}
	switch {
	case len(newestFirst) > 1:
		w.Current, w.Next = newestFirst[1], newestFirst[0]
	case len(newestFirst) == 1:
		w.Current = newestFirst[0]
	}
	return w
}

// LatestWeeks loads the two newest collections and applies SelectWeeks.
func (s *Store) LatestWeeks(ctx context.Context) (Weeks, error) {
	cols, err := s.ListCollections(ctx, 2)
	if err != nil {
		return Weeks{}, err
	}
	return SelectWeeks(cols), nil
}
