package controller

import (
	"errors"
	"strconv"

	"ai_quiz_backend/internal/model"
	"ai_quiz_backend/internal/service"
	"ai_quiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	AttemptService *service.AttemptService
}

func NewAttemptController(attemptService *service.AttemptService) *AttemptController {
	return &AttemptController{AttemptService: attemptService}
}

func handleAttemptError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrAttemptNotFound), errors.Is(err, util.ErrQuizNotFound), errors.Is(err, util.ErrQuestionNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrAttemptFinished):
		util.Error(ctx, 409, "attempt already completed or abandoned")
	case errors.Is(err, util.ErrQuestionNotInSet):
		util.BadRequest(ctx, "question is not part of this attempt")
	case errors.Is(err, util.ErrEmptyQuestionPool):
		util.Error(ctx, 422, "quiz has no available questions")
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

// requesterID returns the acting user's ID, or 0 for admins, who may touch
// any attempt.
func requesterID(ctx *gin.Context) uint {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		return 0
	}
	if claims.Role == model.RoleAdmin {
		return 0
	}
	return claims.UserID
}

// StartRequest opens a new attempt.
// swagger:model StartRequest
type StartRequest struct {
	QuizID     uint             `json:"quizId" binding:"required"`
	Count      int              `json:"count"`
	Difficulty model.Difficulty `json:"difficulty"`
}

// Start godoc
// @Summary Start a quiz attempt
// @Description Draw a stratified random question set and open an in-progress attempt
// @Tags attempts
// @Accept  json
// @Produce  json
// @Param   body body StartRequest true "Quiz, size, and preferred difficulty"
// @Success 201 {object} util.Response{data=object}
// @Failure 422 {object} util.Response "Quiz has no available questions"
// @Security BearerAuth
// @Router /api/attempts [post]
func (c *AttemptController) Start(ctx *gin.Context) {
	var req StartRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	if claims == nil || claims.UserID == 0 {
		util.Unauthorized(ctx)
		return
	}

	attempt, questions, err := c.AttemptService.StartAttempt(claims.UserID, req.QuizID, req.Count, req.Difficulty)
	if err != nil {
		handleAttemptError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{
		"sessionId":      attempt.SessionID,
		"quizId":         attempt.QuizID,
		"totalQuestions": attempt.TotalQuestions,
		"difficulty":     attempt.DifficultySelected,
		"questions":      questions,
	})
}

// AnswerRequest records one answer.
// swagger:model AnswerRequest
type AnswerRequest struct {
	QuestionID uint   `json:"questionId" binding:"required"`
	Answer     string `json:"answer" binding:"required"`
}

// Answer godoc
// @Summary Record an answer
// @Description Grade the answer against the stored key; re-answering overwrites
// @Tags attempts
// @Accept  json
// @Produce  json
// @Param   sessionId path string true "Attempt session ID"
// @Param   body body AnswerRequest true "Question and answer"
// @Success 200 {object} util.Response{data=service.AnswerResult}
// @Failure 409 {object} util.Response "Attempt already finished"
// @Security BearerAuth
// @Router /api/attempts/{sessionId}/answers [post]
func (c *AttemptController) Answer(ctx *gin.Context) {
	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.AttemptService.RecordAnswer(ctx.Param("sessionId"), requesterID(ctx), req.QuestionID, req.Answer)
	if err != nil {
		handleAttemptError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// SkipRequest marks one question skipped.
// swagger:model SkipRequest
type SkipRequest struct {
	QuestionID uint `json:"questionId" binding:"required"`
}

// Skip godoc
// @Summary Skip a question
// @Tags attempts
// @Accept  json
// @Produce  json
// @Param   sessionId path string true "Attempt session ID"
// @Param   body body SkipRequest true "Question to skip"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /api/attempts/{sessionId}/skips [post]
func (c *AttemptController) Skip(ctx *gin.Context) {
	var req SkipRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AttemptService.RecordSkip(ctx.Param("sessionId"), requesterID(ctx), req.QuestionID); err != nil {
		handleAttemptError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"skipped": req.QuestionID})
}

// Complete godoc
// @Summary Complete an attempt
// @Description Score and close the attempt; completing twice is a no-op
// @Tags attempts
// @Produce  json
// @Param   sessionId path string true "Attempt session ID"
// @Success 200 {object} util.Response{data=object}
// @Security BearerAuth
// @Router /api/attempts/{sessionId}/complete [post]
func (c *AttemptController) Complete(ctx *gin.Context) {
	attempt, err := c.AttemptService.Complete(ctx.Param("sessionId"), requesterID(ctx))
	if err != nil {
		handleAttemptError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"sessionId":      attempt.SessionID,
		"status":         attempt.Status,
		"correctCount":   attempt.CorrectCount,
		"totalQuestions": attempt.TotalQuestions,
		"score":          util.ScorePercentage(attempt.CorrectCount, attempt.TotalQuestions),
	})
}

// Abandon godoc
// @Summary Abandon an attempt
// @Description Close the attempt without scoring
// @Tags attempts
// @Produce  json
// @Param   sessionId path string true "Attempt session ID"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /api/attempts/{sessionId}/abandon [post]
func (c *AttemptController) Abandon(ctx *gin.Context) {
	if err := c.AttemptService.Abandon(ctx.Param("sessionId"), requesterID(ctx)); err != nil {
		handleAttemptError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"status": model.AttemptAbandoned})
}

// Results godoc
// @Summary Attempt results
// @Description Scored outcome with per-question breakdown; completes an in-progress attempt first
// @Tags attempts
// @Produce  json
// @Param   sessionId path string true "Attempt session ID"
// @Success 200 {object} util.Response{data=service.AttemptResult}
// @Security BearerAuth
// @Router /api/attempts/{sessionId}/results [get]
func (c *AttemptController) Results(ctx *gin.Context) {
	result, err := c.AttemptService.Results(ctx.Param("sessionId"), requesterID(ctx))
	if err != nil {
		handleAttemptError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// History godoc
// @Summary Attempt history
// @Description The caller's attempts, newest first
// @Tags attempts
// @Produce  json
// @Param   limit query int false "Max rows (default 20)"
// @Success 200 {object} util.Response{data=[]service.AttemptSummary}
// @Security BearerAuth
// @Router /api/attempts [get]
func (c *AttemptController) History(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil || claims.UserID == 0 {
		util.Unauthorized(ctx)
		return
	}
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	summaries, err := c.AttemptService.History(claims.UserID, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, summaries)
}
