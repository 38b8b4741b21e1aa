package controller

import (
	"mime/multipart"
	"strconv"
	"strings"

	"minigame_backend/internal/model"
	"minigame_backend/internal/service"
	"minigame_backend/internal/util"
	"minigame_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

// SpellTheWordController 拼词游戏的 HTTP 入口。
// 创建和更新走 multipart 表单：词条以 words 字段的 JSON 数组提交，
// 文件通过 thumbnail_image / files_to_upload / audio_files 上传。
type SpellTheWordController struct {
	Spell *service.SpellTheWordService
}

func NewSpellTheWordController(spell *service.SpellTheWordService) *SpellTheWordController {
	return &SpellTheWordController{Spell: spell}
}

func requireUser(c *gin.Context) (*util.Claims, bool) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c, "Authorization token is required")
		return nil, false
	}
	return claims, true
}

func formInt(c *gin.Context, field string) (int, bool, error) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, util.NewValidationError("%s must be a number", field)
	}
	return n, true, nil
}

func formBool(c *gin.Context, field string) (bool, bool, error) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" {
		return false, false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, util.NewValidationError("%s must be a boolean", field)
	}
	return b, true, nil
}

func formFiles(form *multipart.Form, field string) []*multipart.FileHeader {
	if form == nil {
		return nil
	}
	return form.File[field]
}

// Create 创建拼词游戏
// @Summary 创建拼词游戏
// @Tags spell-the-word
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param name formData string true "游戏名称"
// @Param description formData string false "游戏描述"
// @Param is_publish_immediately formData bool false "是否立即发布"
// @Param score_per_word formData int false "单词分值（默认 100）"
// @Param time_limit formData int false "时间限制秒数（默认 30）"
// @Param words formData string true "词条 JSON 数组"
// @Param thumbnail_image formData file true "封面图"
// @Param files_to_upload formData file true "词条图片（可多个）"
// @Param audio_files formData file false "词条音频（可多个）"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/games/spell-the-word [post]
func (ctl *SpellTheWordController) Create(c *gin.Context) {
	claims, ok := requireUser(c)
	if !ok {
		return
	}

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		util.BadRequest(c, "name is required")
		return
	}
	if len(name) > 128 {
		util.BadRequest(c, "name is too long (max 128 characters)")
		return
	}
	description := strings.TrimSpace(c.PostForm("description"))
	if len(description) > 256 {
		util.BadRequest(c, "description is too long (max 256 characters)")
		return
	}

	wordsRaw := c.PostForm("words")
	if wordsRaw == "" {
		util.BadRequest(c, "words is required")
		return
	}
	words, err := service.ParseSpellWords(wordsRaw)
	if err != nil {
		util.RespondError(c, err)
		return
	}

	publish, _, err := formBool(c, "is_publish_immediately")
	if err != nil {
		util.RespondError(c, err)
		return
	}
	scorePerWord, _, err := formInt(c, "score_per_word")
	if err != nil {
		util.RespondError(c, err)
		return
	}
	timeLimit, _, err := formInt(c, "time_limit")
	if err != nil {
		util.RespondError(c, err)
		return
	}

	thumbnail, err := c.FormFile("thumbnail_image")
	if err != nil {
		util.BadRequest(c, "thumbnail_image is required")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		util.BadRequest(c, "invalid multipart form")
		return
	}

	req := service.CreateSpellTheWordRequest{
		Name:                 name,
		Description:          description,
		IsPublishImmediately: publish,
		ScorePerWord:         scorePerWord,
		TimeLimit:            timeLimit,
		Words:                words,
		Thumbnail:            thumbnail,
		Images:               formFiles(form, "files_to_upload"),
		Audio:                formFiles(form, "audio_files"),
	}

	gameID, err := ctl.Spell.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.Created(c, gin.H{"id": gameID})
}

// GetDetail 作者视角的游戏详情
// @Summary 游戏详情（含答案，仅作者/管理员）
// @Tags spell-the-word
// @Produce json
// @Security BearerAuth
// @Param gameId path string true "游戏 ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/games/spell-the-word/{gameId} [get]
func (ctl *SpellTheWordController) GetDetail(c *gin.Context) {
	claims, ok := requireUser(c)
	if !ok {
		return
	}

	detail, err := ctl.Spell.GetDetail(c.Param("gameId"), claims.UserID, claims.Role)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.Success(c, detail)
}

// Update 更新拼词游戏
// @Summary 更新拼词游戏
// @Tags spell-the-word
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param gameId path string true "游戏 ID"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/games/spell-the-word/{gameId} [patch]
func (ctl *SpellTheWordController) Update(c *gin.Context) {
	claims, ok := requireUser(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		util.BadRequest(c, "invalid multipart form")
		return
	}

	var req service.UpdateSpellTheWordRequest

	if values, exists := form.Value["name"]; exists && len(values) > 0 {
		name := strings.TrimSpace(values[0])
		if len(name) > 128 {
			util.BadRequest(c, "name is too long (max 128 characters)")
			return
		}
		req.Name = &name
	}
	if values, exists := form.Value["description"]; exists && len(values) > 0 {
		description := strings.TrimSpace(values[0])
		if len(description) > 256 {
			util.BadRequest(c, "description is too long (max 256 characters)")
			return
		}
		req.Description = &description
	}

	if publish, set, err := formBool(c, "is_publish"); err != nil {
		util.RespondError(c, err)
		return
	} else if set {
		req.IsPublish = &publish
	}
	if scorePerWord, set, err := formInt(c, "score_per_word"); err != nil {
		util.RespondError(c, err)
		return
	} else if set {
		req.ScorePerWord = &scorePerWord
	}
	if timeLimit, set, err := formInt(c, "time_limit"); err != nil {
		util.RespondError(c, err)
		return
	} else if set {
		req.TimeLimit = &timeLimit
	}

	if raw := c.PostForm("words"); raw != "" {
		words, err := service.ParseSpellWords(raw)
		if err != nil {
			util.RespondError(c, err)
			return
		}
		req.Words = words
	}

	if thumbnail, err := c.FormFile("thumbnail_image"); err == nil {
		req.Thumbnail = thumbnail
	}
	req.Images = formFiles(form, "files_to_upload")
	req.Audio = formFiles(form, "audio_files")

	if err := ctl.Spell.Update(c.Request.Context(), c.Param("gameId"), req, claims.UserID, claims.Role); err != nil {
		util.RespondError(c, err)
		return
	}
	util.SuccessWithMessage(c, "Game updated successfully", nil)
}

// Delete 删除拼词游戏
// @Summary 删除拼词游戏及其资源
// @Tags spell-the-word
// @Produce json
// @Security BearerAuth
// @Param gameId path string true "游戏 ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/games/spell-the-word/{gameId} [delete]
func (ctl *SpellTheWordController) Delete(c *gin.Context) {
	claims, ok := requireUser(c)
	if !ok {
		return
	}

	if err := ctl.Spell.Delete(c.Request.Context(), c.Param("gameId"), claims.UserID, claims.Role); err != nil {
		util.RespondError(c, err)
		return
	}
	util.SuccessWithMessage(c, "Game deleted successfully", nil)
}

// PlayPublic 公开试玩数据
// @Summary 公开试玩数据（仅已发布）
// @Tags spell-the-word
// @Produce json
// @Param gameId path string true "游戏 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/games/spell-the-word/{gameId}/play/public [get]
func (ctl *SpellTheWordController) PlayPublic(c *gin.Context) {
	view, err := ctl.Spell.GetPlayView(c.Param("gameId"), true, model.GuestUserID, "")
	if err != nil {
		util.RespondError(c, err)
		return
	}
	monitoring.GamePlayCounter.WithLabelValues(model.SpellTheWordSlug, "public").Inc()
	util.Success(c, view)
}

// PlayPrivate 作者预览数据
// @Summary 作者预览数据（无需发布）
// @Tags spell-the-word
// @Produce json
// @Security BearerAuth
// @Param gameId path string true "游戏 ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/games/spell-the-word/{gameId}/play/private [get]
func (ctl *SpellTheWordController) PlayPrivate(c *gin.Context) {
	claims, ok := requireUser(c)
	if !ok {
		return
	}

	view, err := ctl.Spell.GetPlayView(c.Param("gameId"), false, claims.UserID, claims.Role)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	monitoring.GamePlayCounter.WithLabelValues(model.SpellTheWordSlug, "private").Inc()
	util.Success(c, view)
}

type checkAnswersRequest struct {
	Answers []service.SpellingAnswer `json:"answers" binding:"required"`
}

// Check 批量判题
// @Summary 批量判题
// @Tags spell-the-word
// @Accept json
// @Produce json
// @Param gameId path string true "游戏 ID"
// @Param request body checkAnswersRequest true "作答列表"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/games/spell-the-word/{gameId}/check [post]
func (ctl *SpellTheWordController) Check(c *gin.Context) {
	var req checkAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	result, err := ctl.Spell.CheckAnswers(c.Param("gameId"), req.Answers)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.Success(c, result)
}

// SubmitScore 提交成绩
// @Summary 提交成绩（登录用户记名，游客匿名）
// @Tags spell-the-word
// @Accept json
// @Produce json
// @Param gameId path string true "游戏 ID"
// @Param request body service.SubmitScoreRequest true "成绩"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/games/spell-the-word/{gameId}/submit-score [post]
func (ctl *SpellTheWordController) SubmitScore(c *gin.Context) {
	var req service.SubmitScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	userID := model.GuestUserID
	if claims := util.GetUserFromContext(c); claims != nil {
		userID = claims.UserID
	}

	result, err := ctl.Spell.SubmitScore(c.Request.Context(), c.Param("gameId"), userID, req)
	if err != nil {
		util.RespondError(c, err)
		return
	}

	outcome := "rejected"
	if result.Updated {
		outcome = "accepted"
	}
	monitoring.ScoreSubmissionCounter.WithLabelValues(model.SpellTheWordSlug, outcome).Inc()

	util.SuccessWithMessage(c, result.Message, result)
}

// Leaderboard 排行榜
// @Summary 排行榜（分数降序，用时升序）
// @Tags spell-the-word
// @Produce json
// @Param gameId path string true "游戏 ID"
// @Param limit query int false "返回条数（默认 10，最大 100）"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/games/spell-the-word/{gameId}/leaderboard [get]
func (ctl *SpellTheWordController) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	rows, err := ctl.Spell.GetLeaderboard(c.Request.Context(), c.Param("gameId"), limit)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.Success(c, rows)
}
