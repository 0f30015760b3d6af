package controller

import (
	"errors"
	"strconv"

	"ai_quiz_backend/internal/model"
	"ai_quiz_backend/internal/service"
	"ai_quiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// handleQuestionError maps the service sentinels onto the envelope.
func handleQuestionError(ctx *gin.Context, err error) {
	var verrs *util.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		util.Error(ctx, 400, verrs.Error())
	case errors.Is(err, util.ErrQuestionNotFound), errors.Is(err, util.ErrQuizNotFound):
		util.NotFound(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

// Create godoc
// @Summary Create a question
// @Description Validate a question structurally, run the dual-model consensus check (or record a skip), and persist it
// @Tags questions
// @Accept  json
// @Produce  json
// @Param   body body service.QuestionInput true "Question submission"
// @Success 201 {object} util.Response{data=object}
// @Failure 400 {object} util.Response "Structural validation failed"
// @Security BearerAuth
// @Router /api/admin/questions [post]
func (c *QuestionController) Create(ctx *gin.Context) {
	var req service.QuestionInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, result, err := c.QuestionService.CreateQuestion(ctx.Request.Context(), req)
	if err != nil {
		handleQuestionError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{
		"question":   question,
		"validation": result,
	})
}

// Get godoc
// @Summary Get a question
// @Tags questions
// @Produce  json
// @Param   id path int true "Question ID"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/admin/questions/{id} [get]
func (c *QuestionController) Get(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	question, err := c.QuestionService.GetQuestion(id)
	if err != nil {
		handleQuestionError(ctx, err)
		return
	}
	util.Success(ctx, question)
}

// List godoc
// @Summary Search questions
// @Description Filter by text, difficulty, response type; paginated
// @Tags questions
// @Produce  json
// @Param   search query string false "Text search"
// @Param   difficulty query string false "Easy, Medium, or Hard"
// @Param   type query string false "single or multiple"
// @Param   page query int false "Page (default 1)"
// @Param   limit query int false "Page size (default 20)"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Security BearerAuth
// @Router /api/admin/questions [get]
func (c *QuestionController) List(ctx *gin.Context) {
	filter := questionFilterFromQuery(ctx)

	questions, total, err := c.QuestionService.SearchQuestions(filter)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  questions,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

func questionFilterFromQuery(ctx *gin.Context) service.QuestionFilter {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	return service.QuestionFilter{
		Search:       ctx.Query("search"),
		Difficulty:   model.Difficulty(ctx.Query("difficulty")),
		ResponseType: model.ResponseType(ctx.Query("type")),
		SortBy:       ctx.Query("sort_by"),
		Order:        ctx.Query("order"),
		Page:         page,
		Limit:        limit,
	}
}

// Update godoc
// @Summary Update a question
// @Description Rewrite the editable fields; pass revalidate=true to rerun the consensus check
// @Tags questions
// @Accept  json
// @Produce  json
// @Param   id path int true "Question ID"
// @Param   revalidate query bool false "Rerun dual-model validation"
// @Param   body body service.QuestionInput true "Updated fields"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/admin/questions/{id} [put]
func (c *QuestionController) Update(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req service.QuestionInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	revalidate := ctx.Query("revalidate") == "true"

	question, err := c.QuestionService.UpdateQuestion(ctx.Request.Context(), id, req, revalidate)
	if err != nil {
		handleQuestionError(ctx, err)
		return
	}
	util.Success(ctx, question)
}

// Delete godoc
// @Summary Delete a question
// @Tags questions
// @Produce  json
// @Param   id path int true "Question ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/admin/questions/{id} [delete]
func (c *QuestionController) Delete(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.QuestionService.DeleteQuestion(id); err != nil {
		handleQuestionError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": id})
}

// Flagged godoc
// @Summary List flagged questions
// @Description Review queue of questions whose validation disagreed or was skipped
// @Tags questions
// @Produce  json
// @Param   reason query string false "manual or disagreement"
// @Param   difficulty query string false "Easy, Medium, or Hard"
// @Param   type query string false "single or multiple"
// @Param   search query string false "Text search"
// @Param   page query int false "Page (default 1)"
// @Param   limit query int false "Page size (default 20)"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Security BearerAuth
// @Router /api/admin/questions/flagged [get]
func (c *QuestionController) Flagged(ctx *gin.Context) {
	filter := questionFilterFromQuery(ctx)
	reason := ctx.Query("reason")
	if reason != "" && reason != service.FlagReasonManual && reason != service.FlagReasonDisagreement {
		util.BadRequest(ctx, "reason must be 'manual' or 'disagreement'")
		return
	}

	entries, total, err := c.QuestionService.FlaggedQueue(filter, reason)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  entries,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

// FlaggedStats godoc
// @Summary Flagged queue summary
// @Tags questions
// @Produce  json
// @Success 200 {object} util.Response{data=service.FlaggedSummary}
// @Security BearerAuth
// @Router /api/admin/questions/flagged/stats [get]
func (c *QuestionController) FlaggedStats(ctx *gin.Context) {
	summary, err := c.QuestionService.FlaggedStats()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// ResolveFlagRequest optionally rewrites the answer while unflagging.
// swagger:model ResolveFlagRequest
type ResolveFlagRequest struct {
	CorrectAnswer string `json:"correctAnswer,omitempty"`
}

// ResolveFlag godoc
// @Summary Resolve a flagged question
// @Description Clear the conflict flag after review, optionally correcting the stored answer
// @Tags questions
// @Accept  json
// @Produce  json
// @Param   id path int true "Question ID"
// @Param   body body ResolveFlagRequest false "Optional corrected answer"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/admin/questions/{id}/resolve [post]
func (c *QuestionController) ResolveFlag(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req ResolveFlagRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.QuestionService.ResolveFlag(id, req.CorrectAnswer)
	if err != nil {
		handleQuestionError(ctx, err)
		return
	}
	util.Success(ctx, question)
}

// Revalidate godoc
// @Summary Rerun validation on a question
// @Tags questions
// @Produce  json
// @Param   id path int true "Question ID"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/admin/questions/{id}/revalidate [post]
func (c *QuestionController) Revalidate(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	question, result, err := c.QuestionService.Revalidate(ctx.Request.Context(), id)
	if err != nil {
		handleQuestionError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"question":   question,
		"validation": result,
	})
}
