package controller

import (
	"encoding/json"
	"errors"

	"certprep_backend/internal/model"
	"certprep_backend/internal/service"
	"certprep_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionController struct {
	QuestionService *service.QuestionService
	CategoryService *service.CategoryService
}

func NewQuestionController(questionService *service.QuestionService, categoryService *service.CategoryService) *QuestionController {
	return &QuestionController{QuestionService: questionService, CategoryService: categoryService}
}

// swagger:model ChoiceRequest
type ChoiceRequest struct {
	Text      string `json:"text" binding:"required"`
	IsCorrect bool   `json:"isCorrect"`
	Order     int    `json:"order"`
}

// swagger:model QuestionRequest
type QuestionRequest struct {
	CategoryID       *uint             `json:"categoryId"`
	Text             string            `json:"text" binding:"required"`
	QuestionType     string            `json:"questionType" binding:"required"`
	Difficulty       string            `json:"difficulty"`
	Explanation      string            `json:"explanation"`
	CorrectText      string            `json:"correctText"`
	NumericAnswer    *float64          `json:"numericAnswer"`
	NumericTolerance float64           `json:"numericTolerance"`
	MatchingPairs    []model.MatchPair `json:"matchingPairs"`
	OrderingItems    []string          `json:"orderingItems"`
	Choices          []ChoiceRequest   `json:"choices"`
}

func (r *QuestionRequest) toModel() (*model.Question, error) {
	q := &model.Question{
		CategoryID:       r.CategoryID,
		Text:             r.Text,
		QuestionType:     r.QuestionType,
		Difficulty:       r.Difficulty,
		Explanation:      r.Explanation,
		CorrectText:      r.CorrectText,
		NumericAnswer:    r.NumericAnswer,
		NumericTolerance: r.NumericTolerance,
		IsActive:         true,
	}
	if q.Difficulty == "" {
		q.Difficulty = model.DifficultyEasy
	}
	if len(r.MatchingPairs) > 0 {
		raw, err := json.Marshal(r.MatchingPairs)
		if err != nil {
			return nil, err
		}
		q.MatchingPairs = datatypes.JSON(raw)
	}
	if len(r.OrderingItems) > 0 {
		raw, err := json.Marshal(r.OrderingItems)
		if err != nil {
			return nil, err
		}
		q.OrderingItems = datatypes.JSON(raw)
	}
	for i, c := range r.Choices {
		q.Choices = append(q.Choices, model.Choice{
			Text:      c.Text,
			IsCorrect: c.IsCorrect,
			Order:     i,
		})
	}
	return q, nil
}

// Create godoc
// @Summary Create a question
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param   body body QuestionRequest true "question payload"
// @Success 201 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response
// @Router /api/admin/questions [post]
func (c *QuestionController) Create(ctx *gin.Context) {
	var req QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q, err := req.toModel()
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.QuestionService.Create(q); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, q)
}

// Update godoc
// @Summary Update a question and its choices
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param   id path int true "question id"
// @Param   body body QuestionRequest true "question payload"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/questions/{id} [put]
func (c *QuestionController) Update(ctx *gin.Context) {
	var req QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	existing, err := c.QuestionService.Get(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	q, err := req.toModel()
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	q.ID = existing.ID
	q.IsActive = existing.IsActive
	q.ImageURL = existing.ImageURL
	if err := c.QuestionService.Update(q); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, q)
}

// Get godoc
// @Summary Question detail
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Param   id path int true "question id"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 404 {object} util.Response
// @Router /api/admin/questions/{id} [get]
func (c *QuestionController) Get(ctx *gin.Context) {
	q, err := c.QuestionService.Get(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, q)
}

// Deactivate godoc
// @Summary Retire a question from future allocation
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Param   id path int true "question id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/questions/{id} [delete]
func (c *QuestionController) Deactivate(ctx *gin.Context) {
	if err := c.QuestionService.Deactivate(util.MustParseUint(ctx.Param("id"))); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"deactivated": true})
}

// List godoc
// @Summary Questions in a category
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Param   categoryId query int true "category id"
// @Param   page query int false "page"
// @Param   limit query int false "page size"
// @Success 200 {object} util.Response{data=object}
// @Router /api/admin/questions [get]
func (c *QuestionController) List(ctx *gin.Context) {
	categoryID := util.MustParseUint(ctx.Query("categoryId"))
	page := util.ParseIntDefault(ctx.DefaultQuery("page", "1"), 1)
	limit := util.ParseIntDefault(ctx.DefaultQuery("limit", "20"), 20)

	questions, total, err := c.QuestionService.ListByCategory(categoryID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"questions": questions,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}

// UploadImage godoc
// @Summary Attach an illustration to a question
// @Tags questions
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param   id path int true "question id"
// @Param   file formData file true "image file"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response
// @Router /api/admin/questions/{id}/image [post]
func (c *QuestionController) UploadImage(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "missing file")
		return
	}

	src, err := file.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer src.Close()

	q, err := c.QuestionService.AttachImage(ctx.Request.Context(),
		util.MustParseUint(ctx.Param("id")),
		file.Filename, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, q)
}

// Categories godoc
// @Summary Full category tree
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.CategoryNode}
// @Router /api/categories [get]
func (c *QuestionController) Categories(ctx *gin.Context) {
	tree, err := c.CategoryService.Tree()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, tree)
}

// swagger:model CategoryRequest
type CategoryRequest struct {
	Name     string `json:"name" binding:"required"`
	Slug     string `json:"slug" binding:"required"`
	ParentID *uint  `json:"parentId"`
}

// CreateCategory godoc
// @Summary Create a category
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param   body body CategoryRequest true "category payload"
// @Success 201 {object} util.Response{data=model.Category}
// @Failure 400 {object} util.Response
// @Router /api/admin/categories [post]
func (c *QuestionController) CreateCategory(ctx *gin.Context) {
	var req CategoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	category := &model.Category{
		Name:     req.Name,
		Slug:     req.Slug,
		ParentID: req.ParentID,
		IsActive: true,
	}
	if err := c.CategoryService.Create(category); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, category)
}
