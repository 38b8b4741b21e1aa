package controller

import (
	"strconv"

	"minigame_backend/internal/service"
	"minigame_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	Auth *service.AuthService
}

func NewAuthController(auth *service.AuthService) *AuthController {
	return &AuthController{Auth: auth}
}

// Register 用户注册
// @Summary 用户注册
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.RegisterRequest true "注册信息"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/auth/register [post]
func (ctl *AuthController) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	result, err := ctl.Auth.Register(req)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.Created(c, result)
}

// Login 用户登录
// @Summary 用户登录
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.LoginRequest true "登录凭证"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/auth/login [post]
func (ctl *AuthController) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	result, err := ctl.Auth.Login(req)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.Success(c, result)
}

// ListUsers 用户列表（仅超级管理员）
// @Summary 用户列表（仅超级管理员）
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param offset query int false "偏移量"
// @Param limit query int false "返回条数（默认 20，最大 100）"
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/admin/users [get]
func (ctl *AuthController) ListUsers(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	profiles, err := ctl.Auth.ListUsers(offset, limit)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.Success(c, profiles)
}

// Me 当前用户资料
// @Summary 当前用户资料
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response
// @Router /api/auth/me [get]
func (ctl *AuthController) Me(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c, "Authorization token is required")
		return
	}

	profile, err := ctl.Auth.Me(claims.UserID)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.Success(c, profile)
}
