package controller

import (
	"errors"

	"certprep_backend/internal/model"
	"certprep_backend/internal/service"
	"certprep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExamController struct {
	ExamService *service.ExamService
}

func NewExamController(examService *service.ExamService) *ExamController {
	return &ExamController{ExamService: examService}
}

// swagger:model ExamRequest
type ExamRequest struct {
	Title           string  `json:"title" binding:"required"`
	Description     string  `json:"description"`
	CategoryID      *uint   `json:"categoryId"`
	QuestionCount   int     `json:"questionCount" binding:"required,min=1"`
	DurationSeconds int     `json:"durationSeconds" binding:"required,min=60"`
	PassingScore    float64 `json:"passingScore" binding:"min=0,max=100"`
	Level           int     `json:"level" binding:"min=1,max=3"`
	MaxMockAttempts int     `json:"maxMockAttempts" binding:"min=0"`
	IsPremium       bool    `json:"isPremium"`
}

func (r *ExamRequest) apply(exam *model.Exam) {
	exam.Title = r.Title
	exam.Description = r.Description
	exam.CategoryID = r.CategoryID
	exam.QuestionCount = r.QuestionCount
	exam.DurationSeconds = r.DurationSeconds
	exam.PassingScore = r.PassingScore
	exam.Level = r.Level
	exam.MaxMockAttempts = r.MaxMockAttempts
	exam.IsPremium = r.IsPremium
}

// Create godoc
// @Summary Create an exam
// @Tags exams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param   body body ExamRequest true "exam definition"
// @Success 201 {object} util.Response{data=model.Exam}
// @Failure 400 {object} util.Response
// @Router /api/admin/exams [post]
func (c *ExamController) Create(ctx *gin.Context) {
	var req ExamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	exam := &model.Exam{}
	req.apply(exam)
	if err := c.ExamService.Create(exam); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, exam)
}

// Update godoc
// @Summary Update an exam
// @Tags exams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param   id path int true "exam id"
// @Param   body body ExamRequest true "exam definition"
// @Success 200 {object} util.Response{data=model.Exam}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/exams/{id} [put]
func (c *ExamController) Update(ctx *gin.Context) {
	var req ExamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	exam, err := c.ExamService.Get(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, util.ErrExamNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	req.apply(exam)
	if err := c.ExamService.Update(exam); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, exam)
}

// swagger:model AllocationRuleRequest
type AllocationRuleRequest struct {
	CategoryID uint `json:"categoryId" binding:"required"`
	FixedCount *int `json:"fixedCount"`
	Percentage int  `json:"percentage"`
}

// SetAllocations godoc
// @Summary Replace the exam's category allocation rules
// @Description Rule order is significant: it breaks ties when percentage remainders are distributed.
// @Tags exams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param   id path int true "exam id"
// @Param   body body []AllocationRuleRequest true "ordered rules"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/admin/exams/{id}/allocations [put]
func (c *ExamController) SetAllocations(ctx *gin.Context) {
	var reqs []AllocationRuleRequest
	if err := ctx.ShouldBindJSON(&reqs); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	rules := make([]model.ExamCategoryAllocation, 0, len(reqs))
	for i, r := range reqs {
		rules = append(rules, model.ExamCategoryAllocation{
			CategoryID: r.CategoryID,
			FixedCount: r.FixedCount,
			Percentage: r.Percentage,
			Position:   i,
		})
	}

	examID := util.MustParseUint(ctx.Param("id"))
	if err := c.ExamService.SetAllocations(examID, rules); err != nil {
		if errors.Is(err, util.ErrExamNotFound) {
			util.NotFound(ctx)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Success(ctx, gin.H{"updated": true})
}

// Publish godoc
// @Summary Publish or unpublish an exam
// @Tags exams
// @Produce json
// @Security BearerAuth
// @Param   id path int true "exam id"
// @Param   published query bool true "target state"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/admin/exams/{id}/publish [post]
func (c *ExamController) Publish(ctx *gin.Context) {
	examID := util.MustParseUint(ctx.Param("id"))
	published := ctx.DefaultQuery("published", "true") == "true"

	if err := c.ExamService.SetPublished(examID, published); err != nil {
		if errors.Is(err, util.ErrExamNotFound) {
			util.NotFound(ctx)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Success(ctx, gin.H{"published": published})
}

// List godoc
// @Summary Published exams with per-user lock reasons
// @Tags exams
// @Produce json
// @Security BearerAuth
// @Param   page query int false "page"
// @Param   limit query int false "page size"
// @Success 200 {object} util.Response{data=object}
// @Router /api/exams [get]
func (c *ExamController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	page := util.ParseIntDefault(ctx.DefaultQuery("page", "1"), 1)
	limit := util.ParseIntDefault(ctx.DefaultQuery("limit", "20"), 20)

	listings, total, err := c.ExamService.ListForUser(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"exams": listings,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// Get godoc
// @Summary Exam detail
// @Tags exams
// @Produce json
// @Security BearerAuth
// @Param   id path int true "exam id"
// @Success 200 {object} util.Response{data=model.Exam}
// @Failure 404 {object} util.Response
// @Router /api/exams/{id} [get]
func (c *ExamController) Get(ctx *gin.Context) {
	exam, err := c.ExamService.Get(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, util.ErrExamNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, exam)
}
