package service

import (
	"errors"
	"testing"

	"ai_quiz_backend/internal/model"
	"ai_quiz_backend/internal/util"
)

type fakeUserStore struct {
	users     map[string]*model.User
	nextID    uint
	createErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*model.User)}
}

func (f *fakeUserStore) Create(user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	user.ID = f.nextID
	f.users[user.Username] = user
	return nil
}

func (f *fakeUserStore) FindByID(id uint) (*model.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, util.ErrUserNotFound
}

func (f *fakeUserStore) FindByUsername(username string) (*model.User, error) {
	if u, ok := f.users[username]; ok {
		return u, nil
	}
	return nil, util.ErrUserNotFound
}

func (f *fakeUserStore) List() ([]model.User, error) { return nil, nil }

func (f *fakeUserStore) UpdateLastSeen(userID uint) error { return nil }

type fakeStatsStore struct {
	count  int64
	avg    float64
	best   float64
	scores []float64
}

func (f *fakeStatsStore) CompletedStats(userID uint) (int64, float64, float64, error) {
	return f.count, f.avg, f.best, nil
}

func (f *fakeStatsStore) RecentScores(userID uint, limit int) ([]float64, error) {
	if limit < len(f.scores) {
		return f.scores[:limit], nil
	}
	return f.scores, nil
}

func TestGetOrCreateNewUser(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUserService(store, &fakeStatsStore{})

	user, err := svc.GetOrCreate("alice")
	if err != nil {
		t.Fatal(err)
	}
	if user.ID == 0 || user.Username != "alice" {
		t.Errorf("created user = %+v", user)
	}

	again, err := svc.GetOrCreate("alice")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != user.ID {
		t.Errorf("second login created a new row: %d vs %d", again.ID, user.ID)
	}
}

func TestGetOrCreateRejectsInvalidUsername(t *testing.T) {
	svc := NewUserService(newFakeUserStore(), &fakeStatsStore{})

	if _, err := svc.GetOrCreate("x"); err == nil {
		t.Error("too-short username accepted")
	}
	if _, err := svc.GetOrCreate("___"); err == nil {
		t.Error("letterless username accepted")
	}
}

func TestGetOrCreateRaceFallsBackToFind(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUserService(store, &fakeStatsStore{})

	// Simulate losing the insert race: the create fails but the row exists
	// by the time we re-read.
	winner := &model.User{Username: "bob"}
	store.Create(winner)
	store.createErr = errors.New("Error 1062: Duplicate entry")

	user, err := svc.GetOrCreate("bob")
	if err != nil {
		t.Fatal(err)
	}
	if user.ID != winner.ID {
		t.Errorf("race fallback returned %d, want existing %d", user.ID, winner.ID)
	}
}

func TestTrendDirection(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   string
	}{
		{"too few scores", []float64{90, 80, 70}, "stable"},
		{"improving", []float64{90, 90, 90, 60, 60, 60}, "improving"},
		{"declining", []float64{50, 50, 50, 80, 80, 80}, "declining"},
		{"within threshold", []float64{72, 70, 71, 70, 69, 70}, "stable"},
		{"no scores", nil, "stable"},
	}

	for _, tt := range tests {
		if got := trendDirection(tt.scores); got != tt.want {
			t.Errorf("%s: trendDirection = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestUserStats(t *testing.T) {
	store := newFakeUserStore()
	store.Create(&model.User{Username: "carol"})
	stats := &fakeStatsStore{count: 7, avg: 74.5, best: 100, scores: []float64{100, 90, 80, 70, 60, 50}}
	svc := NewUserService(store, stats)

	got, err := svc.UserStats(1)
	if err != nil {
		t.Fatal(err)
	}
	if got.CompletedAttempts != 7 || got.AverageScore != 74.5 || got.BestScore != 100 {
		t.Errorf("stats = %+v", got)
	}
	if got.TrendDirection != "improving" {
		t.Errorf("trend = %q, want improving", got.TrendDirection)
	}
}
