package controller

import (
	"errors"
	"fmt"
	"strconv"

	"certprep_backend/internal/service"
	"certprep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	AttemptService *service.AttemptService
	AccessService  *service.AccessService
	ExamService    *service.ExamService
}

func NewAttemptController(attemptService *service.AttemptService, accessService *service.AccessService, examService *service.ExamService) *AttemptController {
	return &AttemptController{
		AttemptService: attemptService,
		AccessService:  accessService,
		ExamService:    examService,
	}
}

// answerForm collects the posted answer fields. Answers arrive as form
// fields keyed question_<id> (repeated for multi-select) and
// match_<id>_<idx> for matching pairs.
func answerForm(ctx *gin.Context) service.AnswerForm {
	if err := ctx.Request.ParseMultipartForm(1 << 20); err != nil {
		ctx.Request.ParseForm()
	}
	return service.AnswerForm(ctx.Request.PostForm)
}

// Start godoc
// @Summary Start (or resume) an attempt
// @Description Starting twice returns the same open attempt. Pass mock=true for a practice run that never counts toward pass/fail.
// @Tags attempts
// @Produce json
// @Security BearerAuth
// @Param   id path int true "exam id"
// @Param   mock query bool false "start a mock attempt"
// @Success 201 {object} util.Response{data=model.ExamAttempt}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 422 {object} util.Response
// @Router /api/exams/{id}/attempts [post]
func (c *AttemptController) Start(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	examID := util.MustParseUint(ctx.Param("id"))
	isMock := ctx.Query("mock") == "true"

	exam, err := c.ExamService.Get(examID)
	if err != nil {
		if errors.Is(err, util.ErrExamNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	if isMock {
		err = c.AccessService.AuthorizeMock(claims.UserID, exam)
	} else {
		err = c.AccessService.Authorize(claims.UserID, exam)
	}
	if err != nil {
		switch {
		case errors.Is(err, util.ErrExamNotPublished), errors.Is(err, util.ErrExamNotAccessible):
			util.Forbidden(ctx)
		case errors.Is(err, util.ErrMockLimitReached):
			util.Error(ctx, 403, "mock attempt limit reached")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	attempt, err := c.AttemptService.Start(claims.UserID, examID, isMock)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrExamMisconfigured):
			util.Error(ctx, 422, "exam is not properly configured")
		case errors.Is(err, util.ErrInsufficientQuestions):
			util.Error(ctx, 422, "not enough questions to build this exam")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, attempt)
}

// Question godoc
// @Summary Question at a position in the attempt
// @Description An out-of-range index falls back to the attempt's current position.
// @Tags attempts
// @Produce json
// @Security BearerAuth
// @Param   id path int true "attempt id"
// @Param   index path int true "zero-based question index"
// @Success 200 {object} util.Response{data=service.AttemptQuestion}
// @Failure 404 {object} util.Response
// @Router /api/attempts/{id}/questions/{index} [get]
func (c *AttemptController) Question(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	attemptID := util.MustParseUint(ctx.Param("id"))
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		index = -1
	}

	view, err := c.AttemptService.Question(claims.UserID, attemptID, index)
	if err != nil {
		c.renderAttemptError(ctx, attemptID, err)
		return
	}
	util.Success(ctx, view)
}

// SaveAnswers godoc
// @Summary Autosave partial answers
// @Description Saves without grading. Saving into a submitted attempt is rejected with 409.
// @Tags attempts
// @Accept x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Param   id path int true "attempt id"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/attempts/{id}/answers [post]
func (c *AttemptController) SaveAnswers(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	attemptID := util.MustParseUint(ctx.Param("id"))

	err := c.AttemptService.SaveAnswers(claims.UserID, attemptID, answerForm(ctx))
	if err != nil {
		if errors.Is(err, util.ErrAttemptSubmitted) {
			util.Conflict(ctx, "attempt already submitted")
			return
		}
		c.renderAttemptError(ctx, attemptID, err)
		return
	}
	util.Success(ctx, gin.H{"saved": true})
}

// Submit godoc
// @Summary Submit and grade the attempt
// @Description A repeated submit redirects to the result instead of failing.
// @Tags attempts
// @Accept x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Param   id path int true "attempt id"
// @Success 200 {object} util.Response{data=model.ExamAttempt}
// @Failure 404 {object} util.Response
// @Router /api/attempts/{id}/submit [post]
func (c *AttemptController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	attemptID := util.MustParseUint(ctx.Param("id"))

	attempt, err := c.AttemptService.Submit(claims.UserID, attemptID, answerForm(ctx))
	if err != nil {
		if errors.Is(err, util.ErrAttemptSubmitted) {
			util.Redirect(ctx, resultPath(attemptID), "attempt already submitted")
			return
		}
		c.renderAttemptError(ctx, attemptID, err)
		return
	}
	util.Success(ctx, attempt)
}

// Result godoc
// @Summary Attempt result with per-question review
// @Tags attempts
// @Produce json
// @Security BearerAuth
// @Param   id path int true "attempt id"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response
// @Router /api/attempts/{id}/result [get]
func (c *AttemptController) Result(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	attemptID := util.MustParseUint(ctx.Param("id"))

	attempt, review, err := c.AttemptService.Result(claims.UserID, attemptID)
	if err != nil {
		c.renderAttemptError(ctx, attemptID, err)
		return
	}
	util.Success(ctx, gin.H{
		"attempt": attempt,
		"review":  review,
	})
}

// History godoc
// @Summary The user's past attempts
// @Tags attempts
// @Produce json
// @Security BearerAuth
// @Param   examId query int false "filter by exam"
// @Param   page query int false "page"
// @Param   limit query int false "page size"
// @Success 200 {object} util.Response{data=object}
// @Router /api/attempts [get]
func (c *AttemptController) History(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	examID := util.MustParseUint(ctx.DefaultQuery("examId", "0"))
	page := util.ParseIntDefault(ctx.DefaultQuery("page", "1"), 1)
	limit := util.ParseIntDefault(ctx.DefaultQuery("limit", "20"), 20)

	attempts, total, err := c.AttemptService.List(claims.UserID, examID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"attempts": attempts,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// renderAttemptError maps the attempt engine's sentinel errors onto
// responses. An expired attempt is a settled fact, not a failure, so it
// redirects to the result.
func (c *AttemptController) renderAttemptError(ctx *gin.Context, attemptID uint, err error) {
	switch {
	case errors.Is(err, util.ErrAttemptNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrAttemptExpired), errors.Is(err, util.ErrAttemptSubmitted):
		util.Redirect(ctx, resultPath(attemptID), "attempt already finished")
	default:
		util.LogInternalError(ctx, err)
	}
}

func resultPath(attemptID uint) string {
	return fmt.Sprintf("/api/attempts/%d/result", attemptID)
}
