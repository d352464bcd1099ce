package controller

import (
	"time"

	"certprep_backend/internal/service"
	"certprep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SubscriptionController struct {
	SubscriptionService *service.SubscriptionService
}

func NewSubscriptionController(subscriptionService *service.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{SubscriptionService: subscriptionService}
}

// swagger:model GrantRequest
type GrantRequest struct {
	UserID    uint       `json:"userId" binding:"required"`
	ExamID    uint       `json:"examId" binding:"required"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// Grant godoc
// @Summary Grant premium exam access
// @Tags subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param   body body GrantRequest true "grant payload"
// @Success 201 {object} util.Response{data=model.ExamSubscription}
// @Failure 400 {object} util.Response
// @Router /api/admin/subscriptions [post]
func (c *SubscriptionController) Grant(ctx *gin.Context) {
	var req GrantRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sub, err := c.SubscriptionService.Grant(req.UserID, req.ExamID, req.ExpiresAt)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, sub)
}

// Revoke godoc
// @Summary Revoke premium exam access
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Param   userId query int true "user id"
// @Param   examId query int true "exam id"
// @Success 200 {object} util.Response
// @Router /api/admin/subscriptions [delete]
func (c *SubscriptionController) Revoke(ctx *gin.Context) {
	userID := util.MustParseUint(ctx.Query("userId"))
	examID := util.MustParseUint(ctx.Query("examId"))

	if err := c.SubscriptionService.Revoke(userID, examID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"revoked": true})
}

// Mine godoc
// @Summary The caller's subscriptions
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.ExamSubscription}
// @Router /api/subscriptions [get]
func (c *SubscriptionController) Mine(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	subs, err := c.SubscriptionService.ListForUser(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, subs)
}
