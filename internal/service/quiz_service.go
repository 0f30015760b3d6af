package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"ai_quiz_backend/internal/model"
	"ai_quiz_backend/internal/util"

	"github.com/go-redis/redis/v8"
)

// RecentWindow is the lookback multiplier for recency avoidance: a draw of N
// questions tries to avoid the user's last RecentWindow*N seen questions.
const RecentWindow = 3

const statsCacheTTL = 5 * time.Minute

// difficultyMix maps the user's preferred tier to the Easy/Medium/Hard
// weights applied when sampling. 70% goes to the preferred tier.
var difficultyMix = map[model.Difficulty][3]float64{
	model.DifficultyEasy:   {0.7, 0.2, 0.1},
	model.DifficultyMedium: {0.2, 0.7, 0.1},
	model.DifficultyHard:   {0.1, 0.2, 0.7},
}

// PoolQuestion is the sampler's view of a candidate question.
type PoolQuestion struct {
	ID         uint
	Difficulty model.Difficulty
}

// QuizStore is the persistence contract for quizzes and their question tags.
type QuizStore interface {
	Create(quiz *model.Quiz) error
	FindByID(id uint) (*model.Quiz, error)
	FindByName(name string) (*model.Quiz, error)
	List() ([]model.Quiz, error)
	Delete(id uint) error
	AddTag(quizID, questionID uint) error
	RemoveTag(quizID, questionID uint) error
	TaggedQuestions(quizID uint) ([]model.Question, error)
	Pool(quizID uint) ([]PoolQuestion, error)
	DifficultyCounts(quizID uint) (map[model.Difficulty]int64, error)
}

// RecentQuestionStore reports which questions a user has seen most recently
// on a quiz, newest interaction first, deduplicated.
type RecentQuestionStore interface {
	RecentQuestionIDs(userID, quizID uint, limit int) ([]uint, error)
}

type QuizService struct {
	Quizzes  QuizStore
	Attempts RecentQuestionStore
	rdb      *redis.Client

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewQuizService(quizzes QuizStore, attempts RecentQuestionStore, rdb *redis.Client) *QuizService {
	return &QuizService{
		Quizzes:  quizzes,
		Attempts: attempts,
		rdb:      rdb,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type QuizRequest struct {
	QuizName      string `json:"quizName" binding:"required"`
	TopicDomain   string `json:"topicDomain"`
	TargetLevel   string `json:"targetLevel"`
	CertReference string `json:"certReference"`
}

func (s *QuizService) CreateQuiz(req QuizRequest) (*model.Quiz, error) {
	if err := util.ValidateQuizName(req.QuizName); err != nil {
		return nil, err
	}
	if existing, err := s.Quizzes.FindByName(req.QuizName); err == nil && existing != nil {
		return nil, util.ErrQuizNameTaken
	}

	quiz := &model.Quiz{
		QuizName:      req.QuizName,
		TopicDomain:   req.TopicDomain,
		TargetLevel:   req.TargetLevel,
		CertReference: req.CertReference,
	}
	if err := s.Quizzes.Create(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) ListQuizzes() ([]model.Quiz, error) {
	return s.Quizzes.List()
}

func (s *QuizService) GetQuiz(id uint) (*model.Quiz, error) {
	return s.Quizzes.FindByID(id)
}

// DeleteQuiz removes the quiz and severs its tags; question rows persist.
func (s *QuizService) DeleteQuiz(ctx context.Context, id uint) error {
	if err := s.Quizzes.Delete(id); err != nil {
		return err
	}
	s.invalidateStats(ctx, id)
	return nil
}

func (s *QuizService) AddQuestions(ctx context.Context, quizID uint, questionIDs []uint) error {
	for _, qid := range questionIDs {
		if err := s.Quizzes.AddTag(quizID, qid); err != nil {
			return err
		}
	}
	s.invalidateStats(ctx, quizID)
	return nil
}

func (s *QuizService) RemoveQuestion(ctx context.Context, quizID, questionID uint) error {
	if err := s.Quizzes.RemoveTag(quizID, questionID); err != nil {
		return err
	}
	s.invalidateStats(ctx, quizID)
	return nil
}

func (s *QuizService) QuizQuestions(quizID uint) ([]model.Question, error) {
	return s.Quizzes.TaggedQuestions(quizID)
}

// QuizStats counts the quiz's eligible (non-flagged) questions per tier.
type QuizStats struct {
	Easy   int64 `json:"easy"`
	Medium int64 `json:"medium"`
	Hard   int64 `json:"hard"`
	Total  int64 `json:"total"`
}

func statsCacheKey(quizID uint) string {
	return fmt.Sprintf("quiz:stats:%d", quizID)
}

func (s *QuizService) GetQuizStats(ctx context.Context, quizID uint) (*QuizStats, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, statsCacheKey(quizID)).Result(); err == nil {
			var stats QuizStats
			if json.Unmarshal([]byte(cached), &stats) == nil {
				return &stats, nil
			}
		}
	}

	counts, err := s.Quizzes.DifficultyCounts(quizID)
	if err != nil {
		return nil, err
	}

	stats := &QuizStats{
		Easy:   counts[model.DifficultyEasy],
		Medium: counts[model.DifficultyMedium],
		Hard:   counts[model.DifficultyHard],
	}
	stats.Total = stats.Easy + stats.Medium + stats.Hard

	if s.rdb != nil {
		if raw, err := json.Marshal(stats); err == nil {
			s.rdb.Set(ctx, statsCacheKey(quizID), raw, statsCacheTTL)
		}
	}
	return stats, nil
}

func (s *QuizService) invalidateStats(ctx context.Context, quizID uint) {
	if s.rdb != nil {
		s.rdb.Del(ctx, statsCacheKey(quizID))
	}
}

// subTargets computes the per-tier draw targets for a request of count
// questions at the preferred difficulty. Easy and Medium truncate; Hard
// absorbs the rounding remainder, so the three always sum to count.
func subTargets(count int, preferred model.Difficulty) (easy, medium, hard int) {
	mix, ok := difficultyMix[preferred]
	if !ok {
		mix = difficultyMix[model.DifficultyMedium]
	}
	easy = int(float64(count) * mix[0])
	medium = int(float64(count) * mix[1])
	hard = count - easy - medium
	return
}

// SelectQuestionsForAttempt draws the question set for a new attempt:
// non-flagged questions tagged to the quiz, avoiding the user's recently
// seen questions when supply allows, stratified by the difficulty mix, then
// shuffled. Returns fewer than count only when the whole pool is smaller.
func (s *QuizService) SelectQuestionsForAttempt(quizID uint, count int, preferred model.Difficulty, userID uint) ([]uint, error) {
	pool, err := s.Quizzes.Pool(quizID)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return []uint{}, nil
	}

	recentIDs, err := s.Attempts.RecentQuestionIDs(userID, quizID, RecentWindow*count)
	if err != nil {
		return nil, err
	}
	recent := make(map[uint]bool, len(recentIDs))
	for _, id := range recentIDs {
		recent[id] = true
	}

	available := make([]PoolQuestion, 0, len(pool))
	for _, q := range pool {
		if !recent[q.ID] {
			available = append(available, q)
		}
	}
	// Availability beats novelty: when exclusion starves the draw, use the
	// full pool.
	if len(available) < count {
		available = pool
	}

	var easy, medium, hard []PoolQuestion
	for _, q := range available {
		switch q.Difficulty {
		case model.DifficultyEasy:
			easy = append(easy, q)
		case model.DifficultyHard:
			hard = append(hard, q)
		default:
			medium = append(medium, q)
		}
	}

	easyN, mediumN, hardN := subTargets(count, preferred)

	s.rngMu.Lock()
	defer s.rngMu.Unlock()

	selected := make([]PoolQuestion, 0, count)
	picked := make(map[uint]bool)

	for _, draw := range []struct {
		bucket []PoolQuestion
		n      int
	}{{easy, easyN}, {medium, mediumN}, {hard, hardN}} {
		for _, q := range s.sample(draw.bucket, draw.n) {
			selected = append(selected, q)
			picked[q.ID] = true
		}
	}

	if len(selected) < count {
		var remaining []PoolQuestion
		for _, q := range available {
			if !picked[q.ID] {
				remaining = append(remaining, q)
			}
		}
		for _, q := range s.sample(remaining, count-len(selected)) {
			selected = append(selected, q)
			picked[q.ID] = true
		}
	}

	s.rng.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})

	ids := make([]uint, len(selected))
	for i, q := range selected {
		ids[i] = q.ID
	}
	return ids, nil
}

// sample draws up to n elements without replacement. n <= 0 draws nothing.
func (s *QuizService) sample(bucket []PoolQuestion, n int) []PoolQuestion {
	if n <= 0 || len(bucket) == 0 {
		return nil
	}
	if n > len(bucket) {
		n = len(bucket)
	}
	shuffled := make([]PoolQuestion, len(bucket))
	copy(shuffled, bucket)
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}
