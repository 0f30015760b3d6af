package service

import (
	"errors"

	"ai_quiz_backend/internal/model"
	"ai_quiz_backend/internal/util"
)

// UserStore is the persistence contract for quiz takers.
type UserStore interface {
	Create(user *model.User) error
	FindByID(id uint) (*model.User, error)
	FindByUsername(username string) (*model.User, error)
	List() ([]model.User, error)
	UpdateLastSeen(userID uint) error
}

// AttemptStatsStore aggregates a user's completed-attempt scores.
type AttemptStatsStore interface {
	CompletedStats(userID uint) (count int64, avgScore, bestScore float64, err error)
	RecentScores(userID uint, limit int) ([]float64, error)
}

type UserService struct {
	Users UserStore
	Stats AttemptStatsStore
}

func NewUserService(users UserStore, stats AttemptStatsStore) *UserService {
	return &UserService{Users: users, Stats: stats}
}

// GetOrCreate resolves a username to its user row, creating it on first
// sight. Usernames are the identity; there is no password for quiz takers.
func (s *UserService) GetOrCreate(username string) (*model.User, error) {
	if err := util.ValidateUsername(username); err != nil {
		return nil, err
	}

	user, err := s.Users.FindByUsername(username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, util.ErrUserNotFound) {
		return nil, err
	}

	user = &model.User{Username: username}
	if err := s.Users.Create(user); err != nil {
		// Lost a create race: another request inserted the same name first.
		if existing, findErr := s.Users.FindByUsername(username); findErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(id uint) (*model.User, error) {
	return s.Users.FindByID(id)
}

func (s *UserService) ListUsers() ([]model.User, error) {
	return s.Users.List()
}

// Touch refreshes the user's last-seen timestamp.
func (s *UserService) Touch(userID uint) error {
	return s.Users.UpdateLastSeen(userID)
}

// trendLength bounds how many recent scores the stats endpoint returns.
const trendLength = 10

// trendThreshold is the score-point gap between the two recent-score
// windows below which the trend counts as stable.
const trendThreshold = 5.0

// UserStats summarizes a user's completed attempts.
type UserStats struct {
	CompletedAttempts int64     `json:"completedAttempts"`
	AverageScore      float64   `json:"averageScore"`
	BestScore         float64   `json:"bestScore"`
	Trend             []float64 `json:"trend"`
	TrendDirection    string    `json:"trendDirection"`
}

func (s *UserService) UserStats(userID uint) (*UserStats, error) {
	if _, err := s.Users.FindByID(userID); err != nil {
		return nil, err
	}

	count, avg, best, err := s.Stats.CompletedStats(userID)
	if err != nil {
		return nil, err
	}
	trend, err := s.Stats.RecentScores(userID, trendLength)
	if err != nil {
		return nil, err
	}

	return &UserStats{
		CompletedAttempts: count,
		AverageScore:      avg,
		BestScore:         best,
		Trend:             trend,
		TrendDirection:    trendDirection(trend),
	}, nil
}

// trendDirection compares the average of the three newest completed scores
// against the three before them. Fewer than six scores is always stable;
// scores arrive newest first.
func trendDirection(scores []float64) string {
	if len(scores) < 6 {
		return "stable"
	}
	recent := (scores[0] + scores[1] + scores[2]) / 3
	previous := (scores[3] + scores[4] + scores[5]) / 3
	switch {
	case recent > previous+trendThreshold:
		return "improving"
	case recent < previous-trendThreshold:
		return "declining"
	default:
		return "stable"
	}
}
