// Manual batch revalidation of flagged questions.
//
// Reruns the dual-model consensus check over every flagged question and
// clears the flag on the ones the backends now agree on. Intended for use
// after swapping AI backends or after a large question import; day-to-day
// review should go through the admin endpoints instead.
//
// Usage: go run scripts/revalidate_flagged.go
package main

import (
	"context"
	"log"

	"ai_quiz_backend/internal/config"
	"ai_quiz_backend/internal/llm"
	"ai_quiz_backend/internal/repository"
	"ai_quiz_backend/internal/service"
	"ai_quiz_backend/pkg/database"
	"ai_quiz_backend/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	questions := repository.NewQuestionRepository(db)
	quizzes := repository.NewQuizRepository(db)
	validation := service.NewValidationService(
		llm.NewChatClient(cfg.AI.Primary),
		llm.NewChatClient(cfg.AI.Secondary),
	)
	questionService := service.NewQuestionService(questions, quizzes, validation)

	flagged, total, err := questionService.SearchQuestions(service.QuestionFilter{FlaggedOnly: true, Limit: -1})
	if err != nil {
		log.Fatalf("failed to list flagged questions: %v", err)
	}
	log.Printf("revalidating %d flagged questions...", total)

	ctx := context.Background()
	cleared := 0
	for _, q := range flagged {
		updated, result, err := questionService.Revalidate(ctx, q.ID)
		if err != nil {
			log.Printf("question %d: revalidation failed: %v", q.ID, err)
			continue
		}
		if updated.LLMValidated {
			cleared++
			log.Printf("question %d: backends agree on %q, flag cleared", q.ID, result.ConsensusAnswer)
		} else {
			log.Printf("question %d: still in disagreement", q.ID)
		}
	}
	log.Printf("done: %d of %d flags cleared", cleared, len(flagged))
}
