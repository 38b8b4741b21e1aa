package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"mime/multipart"
	"strings"
	"time"

	"minigame_backend/internal/config"
	"minigame_backend/internal/model"
	"minigame_backend/internal/util"
	"minigame_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 窄接口按测试替换的粒度定义，repository 包里的具体类型天然满足它们

type GameStore interface {
	Create(game *model.Game) error
	FindByID(id string) (*model.Game, error)
	FindByName(name string) (*model.Game, error)
	Update(id string, updates map[string]interface{}) error
	Delete(id string) error
	IncrementTotalPlayed(id string) error
}

type GameTemplateStore interface {
	FindBySlug(slug string) (*model.GameTemplate, error)
}

type LeaderboardStore interface {
	FindByGameAndUser(gameID string, userID uint) (*model.LeaderboardEntry, error)
	UpsertBest(entry *model.LeaderboardEntry) error
	TopByGame(gameID string, limit int) ([]model.LeaderboardEntry, error)
}

// GameAssetStore 资源生命周期的窄接口，由 AssetService 实现
type GameAssetStore interface {
	StoreThumbnail(ctx context.Context, namespace string, file *multipart.FileHeader) (string, error)
	StoreImage(ctx context.Context, namespace string, file *multipart.FileHeader) (string, error)
	StoreAudio(ctx context.Context, namespace string, file *multipart.FileHeader) (string, error)
	Reconcile(ctx context.Context, oldRefs, newRefs []string)
	Purge(ctx context.Context, refs []string)
}

// SpellTheWordService 拼词游戏的创建、编辑、试玩、判题与排行榜
type SpellTheWordService struct {
	Games        GameStore
	Templates    GameTemplateStore
	Leaderboards LeaderboardStore
	Assets       GameAssetStore
	Redis        *redis.Client
	Cfg          *config.Config

	// 洗牌用的随机源，测试注入固定种子
	intn func(int) int
}

func NewSpellTheWordService(
	games GameStore,
	templates GameTemplateStore,
	leaderboards LeaderboardStore,
	assets GameAssetStore,
	rdb *redis.Client,
	cfg *config.Config,
) *SpellTheWordService {
	return &SpellTheWordService{
		Games:        games,
		Templates:    templates,
		Leaderboards: leaderboards,
		Assets:       assets,
		Redis:        rdb,
		Cfg:          cfg,
		intn:         rand.Intn,
	}
}

const (
	defaultScorePerWord = 100
	defaultTimeLimit    = 30
)

// CreateSpellTheWordRequest 创建请求；词条通过下标引用 Images/Audio 数组
type CreateSpellTheWordRequest struct {
	Name                 string
	Description          string
	IsPublishImmediately bool
	ScorePerWord         int
	TimeLimit            int
	Words                []SpellWordInput
	Thumbnail            *multipart.FileHeader
	Images               []*multipart.FileHeader
	Audio                []*multipart.FileHeader
}

// UpdateSpellTheWordRequest 更新请求；nil 字段回落到已存的值。
// Words 为 nil 表示整组词条不变；部分词条编辑不支持，要改就整组重传。
type UpdateSpellTheWordRequest struct {
	Name         *string
	Description  *string
	IsPublish    *bool
	ScorePerWord *int
	TimeLimit    *int
	Words        []SpellWordInput
	Thumbnail    *multipart.FileHeader
	Images       []*multipart.FileHeader
	Audio        []*multipart.FileHeader
}

// SpellTheWordDetail 作者视角的完整记录（含答案）
type SpellTheWordDetail struct {
	ID             string                     `json:"id"`
	Name           string                     `json:"name"`
	Description    string                     `json:"description"`
	ThumbnailImage string                     `json:"thumbnail_image"`
	IsPublished    bool                       `json:"is_published"`
	TotalPlayed    int                        `json:"total_played"`
	CreatedAt      time.Time                  `json:"created_at"`
	Content        *model.SpellTheWordContent `json:"content"`
}

// SpellPlayWord 玩家视角的词条：不含答案本身，只给字符数和打乱后的字符
type SpellPlayWord struct {
	WordIndex       int      `json:"word_index"`
	WordImage       *string  `json:"word_image"`
	WordAudio       *string  `json:"word_audio"`
	Hint            *string  `json:"hint"`
	LetterCount     int      `json:"letter_count"`
	ShuffledLetters []string `json:"shuffled_letters"`
}

// SpellPlayView 玩家视角的游戏数据
type SpellPlayView struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	ThumbnailImage string          `json:"thumbnail_image"`
	ScorePerWord   int             `json:"score_per_word"`
	TimeLimit      int             `json:"time_limit"`
	Words          []SpellPlayWord `json:"words"`
	IsPublished    bool            `json:"is_published"`
}

// SubmitScoreRequest 成绩提交载荷
type SubmitScoreRequest struct {
	PlayerName string  `json:"player_name" binding:"required,max=50"`
	Score      int     `json:"score" binding:"min=0"`
	MaxScore   int     `json:"max_score" binding:"min=0"`
	TimeTaken  int     `json:"time_taken" binding:"min=0"`
	Accuracy   float64 `json:"accuracy" binding:"min=0,max=100"`
}

// SubmitScoreResult 成绩提交结果
type SubmitScoreResult struct {
	ID      uint   `json:"id"`
	Updated bool   `json:"updated"`
	Message string `json:"message"`
}

// LeaderboardUser 排行榜附带的最小玩家公开资料
type LeaderboardUser struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// LeaderboardRow 排行榜单行
type LeaderboardRow struct {
	ID         uint             `json:"id"`
	PlayerName string           `json:"player_name"`
	Score      int              `json:"score"`
	MaxScore   int              `json:"max_score"`
	TimeTaken  int              `json:"time_taken"`
	Accuracy   float64          `json:"accuracy"`
	CreatedAt  time.Time        `json:"created_at"`
	User       *LeaderboardUser `json:"user,omitempty"`
}

func assetNamespace(gameID string) string {
	return "game/" + model.SpellTheWordSlug + "/" + gameID
}

// loadSpellGame 加载记录并确认模板类型；找不到和类型不符一律按 NotFound 处理
func (s *SpellTheWordService) loadSpellGame(gameID string) (*model.Game, error) {
	game, err := s.Games.FindByID(gameID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("Game not found")
		}
		return nil, err
	}
	if game.GameTemplate == nil || game.GameTemplate.Slug != model.SpellTheWordSlug {
		return nil, util.NewNotFoundError("Game not found")
	}
	return game, nil
}

func canManage(game *model.Game, userID uint, role model.UserRole) bool {
	return role == model.RoleSuperAdmin || game.CreatorID == userID
}

func validateGameScalars(scorePerWord, timeLimit, wordCount, maxWords int) error {
	if scorePerWord < 1 || scorePerWord > 1000 {
		return util.NewValidationError("score_per_word must be between 1 and 1000")
	}
	if timeLimit < 10 || timeLimit > 300 {
		return util.NewValidationError("time_limit must be between 10 and 300 seconds")
	}
	if wordCount > maxWords {
		return util.NewValidationError("a game can hold at most %d words", maxWords)
	}
	return nil
}

// Create 构建并持久化一个新的拼词游戏，返回新记录 id。
// 文件按 封面 → 图片 → 音频 的顺序逐个上传：下标到对象键的映射依赖上传顺序。
// 中途失败时已上传的文件会成为孤儿，由后续编辑或删除回收。
func (s *SpellTheWordService) Create(ctx context.Context, req CreateSpellTheWordRequest, userID uint) (string, error) {
	if req.ScorePerWord == 0 {
		req.ScorePerWord = defaultScorePerWord
	}
	if req.TimeLimit == 0 {
		req.TimeLimit = defaultTimeLimit
	}
	if err := validateGameScalars(req.ScorePerWord, req.TimeLimit, len(req.Words), s.Cfg.Game.MaxWords); err != nil {
		return "", err
	}
	if req.Thumbnail == nil {
		return "", util.NewValidationError("thumbnail image is required")
	}
	if len(req.Images) == 0 {
		return "", util.NewValidationError("at least one image file is required")
	}

	// 名字可用性检查和插入之间存在竞争窗口，唯一索引兜底（见下方错误映射）
	if _, err := s.Games.FindByName(req.Name); err == nil {
		return "", util.NewConflictError("Game name is already used")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	template, err := s.Templates.FindBySlug(model.SpellTheWordSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", util.NewNotFoundError("Game template not found")
		}
		return "", err
	}

	if err := ValidateSpellWords(req.Words, len(req.Images), len(req.Audio), true); err != nil {
		return "", err
	}

	gameID := model.GenerateUUID()
	ns := assetNamespace(gameID)

	thumbnail, err := s.Assets.StoreThumbnail(ctx, ns, req.Thumbnail)
	if err != nil {
		return "", err
	}

	imageRefs, err := s.storeAll(ctx, ns, req.Images, s.Assets.StoreImage)
	if err != nil {
		return "", err
	}
	audioRefs, err := s.storeAll(ctx, ns, req.Audio, s.Assets.StoreAudio)
	if err != nil {
		return "", err
	}

	items, err := ResolveSpellWords(req.Words, imageRefs, audioRefs, false)
	if err != nil {
		return "", err
	}

	content := model.SpellTheWordContent{
		ScorePerWord: req.ScorePerWord,
		TimeLimit:    req.TimeLimit,
		Words:        items,
	}
	raw, err := json.Marshal(&content)
	if err != nil {
		return "", err
	}

	game := &model.Game{
		UUIDBase:       model.UUIDBase{ID: gameID},
		GameTemplateID: template.ID,
		CreatorID:      userID,
		Name:           req.Name,
		Description:    req.Description,
		ThumbnailImage: thumbnail,
		IsPublished:    req.IsPublishImmediately,
		GameJSON:       raw,
	}
	if err := s.Games.Create(game); err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return "", util.NewConflictError("Game name is already used")
		}
		return "", err
	}

	return gameID, nil
}

// storeAll 逐个顺序上传，保持下标与对象键的一一对应
func (s *SpellTheWordService) storeAll(
	ctx context.Context,
	namespace string,
	files []*multipart.FileHeader,
	store func(context.Context, string, *multipart.FileHeader) (string, error),
) ([]string, error) {
	refs := make([]string, 0, len(files))
	for _, file := range files {
		ref, err := store(ctx, namespace, file)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// GetDetail 作者视角的完整记录，仅所有者或超级管理员可见
func (s *SpellTheWordService) GetDetail(gameID string, userID uint, role model.UserRole) (*SpellTheWordDetail, error) {
	game, err := s.loadSpellGame(gameID)
	if err != nil {
		return nil, err
	}
	if !canManage(game, userID, role) {
		return nil, util.NewForbiddenError("User cannot access this game")
	}

	content, err := model.DecodeSpellTheWordContent(game.GameJSON)
	if err != nil {
		return nil, err
	}

	return &SpellTheWordDetail{
		ID:             game.ID,
		Name:           game.Name,
		Description:    game.Description,
		ThumbnailImage: game.ThumbnailImage,
		IsPublished:    game.IsPublished,
		TotalPlayed:    game.TotalPlayed,
		CreatedAt:      game.CreatedAt,
		Content:        content,
	}, nil
}

// Update 覆盖式编辑：调用方省略的字段回落到已存的值，之后对比新旧引用
// 集合回收不再使用的资源文件。
func (s *SpellTheWordService) Update(ctx context.Context, gameID string, req UpdateSpellTheWordRequest, userID uint, role model.UserRole) error {
	game, err := s.loadSpellGame(gameID)
	if err != nil {
		return err
	}
	if !canManage(game, userID, role) {
		return util.NewForbiddenError("User cannot access this game")
	}

	// 没有词条就没有下标能消费上传的文件；先上传再拒绝会留下
	// 永远不进引用集合、回收不到的孤儿
	if req.Words == nil && (len(req.Images) > 0 || len(req.Audio) > 0) {
		return util.NewValidationError("uploaded files must be referenced by the words field")
	}

	if req.Name != nil && *req.Name != "" && *req.Name != game.Name {
		other, err := s.Games.FindByName(*req.Name)
		if err == nil && other.ID != gameID {
			return util.NewConflictError("Game name is already used")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	oldContent, err := model.DecodeSpellTheWordContent(game.GameJSON)
	if err != nil {
		return err
	}

	// 编辑前的全部引用：封面 + 每个词条的图片/音频
	var oldRefs []string
	if game.ThumbnailImage != "" {
		oldRefs = append(oldRefs, game.ThumbnailImage)
	}
	if oldContent != nil {
		oldRefs = append(oldRefs, oldContent.AssetRefs()...)
	}

	if req.Words != nil {
		if err := ValidateSpellWords(req.Words, len(req.Images), len(req.Audio), false); err != nil {
			return err
		}
	}

	ns := assetNamespace(gameID)

	thumbnail := game.ThumbnailImage
	if req.Thumbnail != nil {
		thumbnail, err = s.Assets.StoreThumbnail(ctx, ns, req.Thumbnail)
		if err != nil {
			return err
		}
	}

	imageRefs, err := s.storeAll(ctx, ns, req.Images, s.Assets.StoreImage)
	if err != nil {
		return err
	}
	audioRefs, err := s.storeAll(ctx, ns, req.Audio, s.Assets.StoreAudio)
	if err != nil {
		return err
	}

	scorePerWord := defaultScorePerWord
	timeLimit := defaultTimeLimit
	if oldContent != nil {
		if oldContent.ScorePerWord > 0 {
			scorePerWord = oldContent.ScorePerWord
		}
		if oldContent.TimeLimit > 0 {
			timeLimit = oldContent.TimeLimit
		}
	}
	if req.ScorePerWord != nil {
		scorePerWord = *req.ScorePerWord
	}
	if req.TimeLimit != nil {
		timeLimit = *req.TimeLimit
	}

	var items []model.WordItem
	if req.Words != nil {
		items, err = ResolveSpellWords(req.Words, imageRefs, audioRefs, true)
		if err != nil {
			return err
		}
	} else if oldContent != nil {
		items = oldContent.Words
	}

	if err := validateGameScalars(scorePerWord, timeLimit, len(items), s.Cfg.Game.MaxWords); err != nil {
		return err
	}

	content := model.SpellTheWordContent{
		ScorePerWord: scorePerWord,
		TimeLimit:    timeLimit,
		Words:        items,
	}
	raw, err := json.Marshal(&content)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"thumbnail_image": thumbnail,
		"game_json":       json.RawMessage(raw),
	}
	if req.Name != nil && *req.Name != "" {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.IsPublish != nil {
		updates["is_published"] = *req.IsPublish
	}

	if err := s.Games.Update(gameID, updates); err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return util.NewConflictError("Game name is already used")
		}
		return err
	}

	// 编辑后的全部引用，回收差集
	newRefs := []string{thumbnail}
	newRefs = append(newRefs, content.AssetRefs()...)
	s.Assets.Reconcile(ctx, oldRefs, newRefs)

	return nil
}

// GetPlayView 玩家视角：公开请求要求已发布（否则按 NotFound 处理，不暴露存在性），
// 私有请求要求所有者或超级管理员。每次请求重新洗牌，不缓存。
func (s *SpellTheWordService) GetPlayView(gameID string, isPublic bool, userID uint, role model.UserRole) (*SpellPlayView, error) {
	game, err := s.loadSpellGame(gameID)
	if err != nil {
		return nil, err
	}

	if isPublic && !game.IsPublished {
		return nil, util.NewNotFoundError("Game not found")
	}
	if !isPublic && !canManage(game, userID, role) {
		return nil, util.NewForbiddenError("User cannot get this game data")
	}

	content, err := model.DecodeSpellTheWordContent(game.GameJSON)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, util.NewNotFoundError("Game data not found")
	}

	words := make([]SpellPlayWord, 0, len(content.Words))
	for i, w := range content.Words {
		letters := shuffleLetters(w.WordText, s.intn)
		words = append(words, SpellPlayWord{
			WordIndex:       i,
			WordImage:       w.WordImage,
			WordAudio:       w.WordAudio,
			Hint:            w.Hint,
			LetterCount:     len(letters),
			ShuffledLetters: letters,
		})
	}

	if isPublic {
		if err := s.Games.IncrementTotalPlayed(gameID); err != nil {
			logger.Log.Warn("failed to bump total_played",
				zap.String("game_id", gameID), zap.Error(err))
		}
	}

	return &SpellPlayView{
		ID:             game.ID,
		Name:           game.Name,
		Description:    game.Description,
		ThumbnailImage: game.ThumbnailImage,
		ScorePerWord:   content.ScorePerWord,
		TimeLimit:      content.TimeLimit,
		Words:          words,
		IsPublished:    game.IsPublished,
	}, nil
}

// CheckAnswers 判题；下标越界不会让整批失败
func (s *SpellTheWordService) CheckAnswers(gameID string, answers []SpellingAnswer) (*SpellingCheckResult, error) {
	game, err := s.loadSpellGame(gameID)
	if err != nil {
		return nil, err
	}

	content, err := model.DecodeSpellTheWordContent(game.GameJSON)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, util.NewNotFoundError("Game data not found")
	}

	result := CheckSpellingAnswers(content, answers)
	result.GameID = gameID
	return &result, nil
}

// Delete 删除记录并清理它名下的全部资源文件；排行榜随游戏级联删除
func (s *SpellTheWordService) Delete(ctx context.Context, gameID string, userID uint, role model.UserRole) error {
	game, err := s.loadSpellGame(gameID)
	if err != nil {
		return err
	}
	if !canManage(game, userID, role) {
		return util.NewForbiddenError("User cannot delete this game")
	}

	content, err := model.DecodeSpellTheWordContent(game.GameJSON)
	if err != nil {
		return err
	}

	var refs []string
	if content != nil {
		refs = append(refs, content.AssetRefs()...)
	}
	if game.ThumbnailImage != "" {
		refs = append(refs, game.ThumbnailImage)
	}

	s.Assets.Purge(ctx, refs)
	return s.Games.Delete(gameID)
}

// SubmitScore 提交成绩。只有严格更高的分数才会覆盖已有记录；
// 覆盖判定由存储层的条件 upsert 完成，这里的预读只用于返回提示信息。
// userID 为 model.GuestUserID 时记入游客桶。
func (s *SpellTheWordService) SubmitScore(ctx context.Context, gameID string, userID uint, req SubmitScoreRequest) (*SubmitScoreResult, error) {
	if _, err := s.loadSpellGame(gameID); err != nil {
		return nil, err
	}

	existing, err := s.Leaderboards.FindByGameAndUser(gameID, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil && existing.Score >= req.Score {
		return &SubmitScoreResult{
			ID:      existing.ID,
			Updated: false,
			Message: "Existing score is better",
		}, nil
	}

	entry := &model.LeaderboardEntry{
		GameID:     gameID,
		UserID:     userID,
		PlayerName: req.PlayerName,
		Score:      req.Score,
		MaxScore:   req.MaxScore,
		TimeTaken:  req.TimeTaken,
		Accuracy:   req.Accuracy,
	}
	if err := s.Leaderboards.UpsertBest(entry); err != nil {
		return nil, err
	}

	// upsert 撞上并发覆盖时 entry.ID 不可靠，回读拿权威行
	saved, err := s.Leaderboards.FindByGameAndUser(gameID, userID)
	if err != nil {
		return nil, err
	}

	s.invalidateLeaderboardCache(ctx, gameID)

	return &SubmitScoreResult{
		ID:      saved.ID,
		Updated: true,
		Message: "Score submitted successfully",
	}, nil
}

// GetLeaderboard 排行榜查询，带短 TTL 的 redis 读缓存
func (s *SpellTheWordService) GetLeaderboard(ctx context.Context, gameID string, limit int) ([]LeaderboardRow, error) {
	if _, err := s.loadSpellGame(gameID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	cacheKey := fmt.Sprintf("leaderboard:%s:%d", gameID, limit)
	if rows, ok := s.leaderboardFromCache(ctx, cacheKey); ok {
		return rows, nil
	}

	entries, err := s.Leaderboards.TopByGame(gameID, limit)
	if err != nil {
		return nil, err
	}

	rows := make([]LeaderboardRow, 0, len(entries))
	for _, e := range entries {
		row := LeaderboardRow{
			ID:         e.ID,
			PlayerName: e.PlayerName,
			Score:      e.Score,
			MaxScore:   e.MaxScore,
			TimeTaken:  e.TimeTaken,
			Accuracy:   e.Accuracy,
			CreatedAt:  e.CreatedAt,
		}
		// 游客桶不带资料
		if e.UserID != model.GuestUserID && e.User != nil {
			row.User = &LeaderboardUser{
				ID:     e.User.ID,
				Name:   e.User.Name,
				Avatar: e.User.Avatar,
			}
		}
		rows = append(rows, row)
	}

	s.leaderboardToCache(ctx, gameID, cacheKey, rows)
	return rows, nil
}

func (s *SpellTheWordService) cacheEnabled() bool {
	return s.Redis != nil && s.Cfg.Game.LeaderboardCacheTTL > 0
}

func leaderboardKeySet(gameID string) string {
	return "leaderboard_keys:" + gameID
}

func (s *SpellTheWordService) leaderboardFromCache(ctx context.Context, key string) ([]LeaderboardRow, bool) {
	if !s.cacheEnabled() {
		return nil, false
	}
	raw, err := s.Redis.Get(ctx, key).Result()
	if err != nil {
		return nil, false
	}
	var rows []LeaderboardRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func (s *SpellTheWordService) leaderboardToCache(ctx context.Context, gameID, key string, rows []LeaderboardRow) {
	if !s.cacheEnabled() {
		return
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return
	}
	ttl := time.Duration(s.Cfg.Game.LeaderboardCacheTTL) * time.Second
	s.Redis.Set(ctx, key, raw, ttl)
	// 记下键名，提交新成绩时整组失效
	s.Redis.SAdd(ctx, leaderboardKeySet(gameID), key)
	s.Redis.Expire(ctx, leaderboardKeySet(gameID), ttl)
}

func (s *SpellTheWordService) invalidateLeaderboardCache(ctx context.Context, gameID string) {
	if !s.cacheEnabled() {
		return
	}
	keys, err := s.Redis.SMembers(ctx, leaderboardKeySet(gameID)).Result()
	if err == nil && len(keys) > 0 {
		s.Redis.Del(ctx, keys...)
	}
	s.Redis.Del(ctx, leaderboardKeySet(gameID))
}
