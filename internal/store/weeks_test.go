package store

import "testing"

func TestSelectWeeks(t *testing.T) {
	newer := Collection{ID: 2, WeekLabel: "2025年三月三周"}
	older := Collection{ID: 1, WeekLabel: "2025年三月二周"}

	w := SelectWeeks(nil)
	if w.Current.WeekLabel != UnsetCurrentWeekLabel || w.Next.WeekLabel != UnsetNextWeekLabel {
		t.Fatalf("empty: %+v", w)
	}
	if w.Current.Songs == nil || w.Next.Songs == nil {
		t.Fatalf("placeholders need empty song lists")
	}

	w = SelectWeeks([]Collection{newer})
	if w.Current.ID != 2 || w.Next.WeekLabel != UnsetNextWeekLabel {
		t.Fatalf("single: %+v", w)
	}

	w = SelectWeeks([]Collection{newer, older})
	if w.Current.ID != 1 || w.Next.ID != 2 {
		t.Fatalf("pair: current=%d next=%d", w.Current.ID, w.Next.ID)
	}
}

func TestLatestWeeks(t *testing.T) {
	s := newTestStore(t)
	ctx := ctxT(t)
	for _, l := range []string{"one", "two", "three"} {
		if _, err := s.SaveCollection(ctx, SaveInput{WeekLabel: l, Songs: []SongInput{{Title: l + "-song", Visible: true}}}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	w, err := s.LatestWeeks(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if w.Current.WeekLabel != "two" || w.Next.WeekLabel != "three" {
		t.Fatalf("current=%s next=%s", w.Current.WeekLabel, w.Next.WeekLabel)
	}
	if len(w.Next.Songs) != 1 || w.Next.Songs[0].Title != "three-song" {
		t.Fatalf("next songs: %+v", w.Next.Songs)
	}
}
