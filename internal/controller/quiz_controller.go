package controller

import (
	"errors"

	"ai_quiz_backend/internal/service"
	"ai_quiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

func handleQuizError(ctx *gin.Context, err error) {
	var verrs *util.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		util.Error(ctx, 400, verrs.Error())
	case errors.Is(err, util.ErrQuizNameTaken):
		util.Error(ctx, 409, "quiz name already in use")
	case errors.Is(err, util.ErrQuizNotFound), errors.Is(err, util.ErrQuestionNotFound):
		util.NotFound(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

// Create godoc
// @Summary Create a quiz
// @Tags quizzes
// @Accept  json
// @Produce  json
// @Param   body body service.QuizRequest true "Quiz details"
// @Success 201 {object} util.Response{data=model.Quiz}
// @Failure 409 {object} util.Response "Name already in use"
// @Security BearerAuth
// @Router /api/admin/quizzes [post]
func (c *QuizController) Create(ctx *gin.Context) {
	var req service.QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.QuizService.CreateQuiz(req)
	if err != nil {
		handleQuizError(ctx, err)
		return
	}
	util.Created(ctx, quiz)
}

// List godoc
// @Summary List quizzes
// @Tags quizzes
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.Quiz}
// @Security BearerAuth
// @Router /api/quizzes [get]
func (c *QuizController) List(ctx *gin.Context) {
	quizzes, err := c.QuizService.ListQuizzes()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, quizzes)
}

// Get godoc
// @Summary Get a quiz
// @Tags quizzes
// @Produce  json
// @Param   id path int true "Quiz ID"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/quizzes/{id} [get]
func (c *QuizController) Get(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	quiz, err := c.QuizService.GetQuiz(id)
	if err != nil {
		handleQuizError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// Delete godoc
// @Summary Delete a quiz
// @Description Remove the quiz and its question tags; questions survive
// @Tags quizzes
// @Produce  json
// @Param   id path int true "Quiz ID"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /api/admin/quizzes/{id} [delete]
func (c *QuizController) Delete(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.QuizService.DeleteQuiz(ctx.Request.Context(), id); err != nil {
		handleQuizError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": id})
}

// TagRequest lists questions to tag into a quiz.
// swagger:model TagRequest
type TagRequest struct {
	QuestionIDs []uint `json:"questionIds" binding:"required,min=1"`
}

// AddQuestions godoc
// @Summary Tag questions into a quiz
// @Tags quizzes
// @Accept  json
// @Produce  json
// @Param   id path int true "Quiz ID"
// @Param   body body TagRequest true "Question IDs"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/admin/quizzes/{id}/questions [post]
func (c *QuizController) AddQuestions(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req TagRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if _, err := c.QuizService.GetQuiz(id); err != nil {
		handleQuizError(ctx, err)
		return
	}
	if err := c.QuizService.AddQuestions(ctx.Request.Context(), id, req.QuestionIDs); err != nil {
		handleQuizError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"tagged": len(req.QuestionIDs)})
}

// RemoveQuestion godoc
// @Summary Untag a question from a quiz
// @Tags quizzes
// @Produce  json
// @Param   id path int true "Quiz ID"
// @Param   questionId path int true "Question ID"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /api/admin/quizzes/{id}/questions/{questionId} [delete]
func (c *QuizController) RemoveQuestion(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	questionID, ok := parseIDParam(ctx, "questionId")
	if !ok {
		return
	}

	if err := c.QuizService.RemoveQuestion(ctx.Request.Context(), id, questionID); err != nil {
		handleQuizError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"removed": questionID})
}

// Questions godoc
// @Summary List a quiz's tagged questions
// @Tags quizzes
// @Produce  json
// @Param   id path int true "Quiz ID"
// @Success 200 {object} util.Response{data=[]model.Question}
// @Security BearerAuth
// @Router /api/admin/quizzes/{id}/questions [get]
func (c *QuizController) Questions(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if _, err := c.QuizService.GetQuiz(id); err != nil {
		handleQuizError(ctx, err)
		return
	}
	questions, err := c.QuizService.QuizQuestions(id)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// Stats godoc
// @Summary Quiz difficulty stats
// @Description Per-difficulty counts of the quiz's eligible questions, cached
// @Tags quizzes
// @Produce  json
// @Param   id path int true "Quiz ID"
// @Success 200 {object} util.Response{data=service.QuizStats}
// @Security BearerAuth
// @Router /api/quizzes/{id}/stats [get]
func (c *QuizController) Stats(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if _, err := c.QuizService.GetQuiz(id); err != nil {
		handleQuizError(ctx, err)
		return
	}
	stats, err := c.QuizService.GetQuizStats(ctx.Request.Context(), id)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
