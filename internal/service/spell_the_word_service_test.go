package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"mime/multipart"
	"net/http"
	"os"
	"sort"
	"strings"
	"testing"

	"minigame_backend/internal/config"
	"minigame_backend/internal/model"
	"minigame_backend/internal/util"
	"minigame_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

// ---- fakes ----

type fakeGameStore struct {
	games map[string]*model.Game
}

func newFakeGameStore() *fakeGameStore {
	return &fakeGameStore{games: make(map[string]*model.Game)}
}

func (f *fakeGameStore) Create(game *model.Game) error {
	for _, g := range f.games {
		if g.Name == game.Name {
			return errors.New("Error 1062: Duplicate entry")
		}
	}
	if game.GameTemplate == nil {
		game.GameTemplate = &model.GameTemplate{Slug: model.SpellTheWordSlug}
	}
	f.games[game.ID] = game
	return nil
}

func (f *fakeGameStore) FindByID(id string) (*model.Game, error) {
	game, ok := f.games[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return game, nil
}

func (f *fakeGameStore) FindByName(name string) (*model.Game, error) {
	for _, g := range f.games {
		if g.Name == name {
			return g, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeGameStore) Update(id string, updates map[string]interface{}) error {
	game, ok := f.games[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["name"].(string); ok {
		game.Name = v
	}
	if v, ok := updates["description"].(string); ok {
		game.Description = v
	}
	if v, ok := updates["thumbnail_image"].(string); ok {
		game.ThumbnailImage = v
	}
	if v, ok := updates["is_published"].(bool); ok {
		game.IsPublished = v
	}
	if v, ok := updates["game_json"].(json.RawMessage); ok {
		game.GameJSON = v
	}
	return nil
}

func (f *fakeGameStore) Delete(id string) error {
	if _, ok := f.games[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.games, id)
	return nil
}

func (f *fakeGameStore) IncrementTotalPlayed(id string) error {
	game, ok := f.games[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	game.TotalPlayed++
	return nil
}

type fakeTemplateStore struct{}

func (fakeTemplateStore) FindBySlug(slug string) (*model.GameTemplate, error) {
	return &model.GameTemplate{BaseModel: model.BaseModel{ID: 1}, Slug: slug}, nil
}

type fakeLeaderboardStore struct {
	entries map[string]*model.LeaderboardEntry
	nextID  uint
}

func newFakeLeaderboardStore() *fakeLeaderboardStore {
	return &fakeLeaderboardStore{entries: make(map[string]*model.LeaderboardEntry)}
}

func lbKey(gameID string, userID uint) string {
	return fmt.Sprintf("%s|%d", gameID, userID)
}

func (f *fakeLeaderboardStore) FindByGameAndUser(gameID string, userID uint) (*model.LeaderboardEntry, error) {
	entry, ok := f.entries[lbKey(gameID, userID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *entry
	return &copied, nil
}

func (f *fakeLeaderboardStore) UpsertBest(entry *model.LeaderboardEntry) error {
	key := lbKey(entry.GameID, entry.UserID)
	existing, ok := f.entries[key]
	if !ok {
		f.nextID++
		stored := *entry
		stored.ID = f.nextID
		f.entries[key] = &stored
		return nil
	}
	if entry.Score > existing.Score {
		existing.PlayerName = entry.PlayerName
		existing.Score = entry.Score
		existing.MaxScore = entry.MaxScore
		existing.TimeTaken = entry.TimeTaken
		existing.Accuracy = entry.Accuracy
	}
	return nil
}

func (f *fakeLeaderboardStore) TopByGame(gameID string, limit int) ([]model.LeaderboardEntry, error) {
	var result []model.LeaderboardEntry
	for _, entry := range f.entries {
		if entry.GameID == gameID {
			result = append(result, *entry)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].TimeTaken < result[j].TimeTaken
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

type fakeAssetStore struct {
	uploads    []string
	deleted    []string
	thumbCount int
	imgCount   int
	audCount   int
}

func (f *fakeAssetStore) StoreThumbnail(_ context.Context, namespace string, _ *multipart.FileHeader) (string, error) {
	f.thumbCount++
	ref := fmt.Sprintf("%s/thumb%d.png", namespace, f.thumbCount)
	f.uploads = append(f.uploads, ref)
	return ref, nil
}

func (f *fakeAssetStore) StoreImage(_ context.Context, namespace string, _ *multipart.FileHeader) (string, error) {
	f.imgCount++
	ref := fmt.Sprintf("%s/img%d.png", namespace, f.imgCount)
	f.uploads = append(f.uploads, ref)
	return ref, nil
}

func (f *fakeAssetStore) StoreAudio(_ context.Context, namespace string, _ *multipart.FileHeader) (string, error) {
	f.audCount++
	ref := fmt.Sprintf("%s/aud%d.mp3", namespace, f.audCount)
	f.uploads = append(f.uploads, ref)
	return ref, nil
}

func (f *fakeAssetStore) Reconcile(_ context.Context, oldRefs, newRefs []string) {
	f.deleted = append(f.deleted, OrphanedAssets(oldRefs, newRefs)...)
}

func (f *fakeAssetStore) Purge(_ context.Context, refs []string) {
	f.deleted = append(f.deleted, refs...)
}

// ---- helpers ----

type testEnv struct {
	games        *fakeGameStore
	leaderboards *fakeLeaderboardStore
	assets       *fakeAssetStore
	svc          *SpellTheWordService
}

func newTestEnv() *testEnv {
	games := newFakeGameStore()
	leaderboards := newFakeLeaderboardStore()
	assets := &fakeAssetStore{}
	cfg := &config.Config{}
	cfg.Game = config.GameConfig{MaxWords: 50}

	svc := NewSpellTheWordService(games, fakeTemplateStore{}, leaderboards, assets, nil, cfg)
	svc.intn = rand.New(rand.NewSource(1)).Intn
	return &testEnv{games: games, leaderboards: leaderboards, assets: assets, svc: svc}
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func seedGame(env *testEnv, id string, creatorID uint, published bool, thumbnail string, content *model.SpellTheWordContent) *model.Game {
	raw, _ := json.Marshal(content)
	game := &model.Game{
		UUIDBase:       model.UUIDBase{ID: id},
		GameTemplateID: 1,
		CreatorID:      creatorID,
		Name:           "seed-" + id,
		ThumbnailImage: thumbnail,
		IsPublished:    published,
		GameJSON:       raw,
		GameTemplate:   &model.GameTemplate{Slug: model.SpellTheWordSlug},
	}
	env.games.games[id] = game
	return game
}

func seededContent(scorePerWord int, images map[string]string) *model.SpellTheWordContent {
	var words []model.WordItem
	texts := make([]string, 0, len(images))
	for text := range images {
		texts = append(texts, text)
	}
	sort.Strings(texts)
	for _, text := range texts {
		img := images[text]
		words = append(words, model.WordItem{WordText: text, WordImage: strPtr(img)})
	}
	return &model.SpellTheWordContent{ScorePerWord: scorePerWord, TimeLimit: 30, Words: words}
}

func assertAppError(t *testing.T, err error, code int) {
	t.Helper()
	var appErr *util.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError with code %d, got %v", code, err)
	}
	if appErr.Code != code {
		t.Fatalf("expected code %d, got %d (%s)", code, appErr.Code, appErr.Message)
	}
}

func createRequest(name string, words []SpellWordInput, imageCount, audioCount int) CreateSpellTheWordRequest {
	images := make([]*multipart.FileHeader, imageCount)
	for i := range images {
		images[i] = &multipart.FileHeader{Filename: fmt.Sprintf("img%d.png", i)}
	}
	audio := make([]*multipart.FileHeader, audioCount)
	for i := range audio {
		audio[i] = &multipart.FileHeader{Filename: fmt.Sprintf("aud%d.mp3", i)}
	}
	return CreateSpellTheWordRequest{
		Name:      name,
		Words:     words,
		Thumbnail: &multipart.FileHeader{Filename: "thumb.png"},
		Images:    images,
		Audio:     audio,
	}
}

// ---- tests ----

func TestCreateSpellGame(t *testing.T) {
	env := newTestEnv()

	req := createRequest("Animals", []SpellWordInput{
		{WordText: "Cat", ImageSlot: AssetSlot{Index: intPtr(0)}},
		{WordText: "DOG", ImageSlot: AssetSlot{Index: intPtr(1)}},
	}, 2, 0)
	req.IsPublishImmediately = true

	gameID, err := env.svc.Create(context.Background(), req, 7)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if gameID == "" {
		t.Fatal("expected a game id")
	}

	game := env.games.games[gameID]
	if game == nil {
		t.Fatal("game not persisted")
	}
	if game.CreatorID != 7 {
		t.Errorf("expected creator 7, got %d", game.CreatorID)
	}
	if !game.IsPublished {
		t.Error("expected game to be published")
	}
	ns := "game/spell-the-word/" + gameID
	if !strings.HasPrefix(game.ThumbnailImage, ns+"/") {
		t.Errorf("thumbnail %q outside game namespace", game.ThumbnailImage)
	}

	content, err := model.DecodeSpellTheWordContent(game.GameJSON)
	if err != nil {
		t.Fatalf("decode content: %v", err)
	}
	if content.ScorePerWord != 100 || content.TimeLimit != 30 {
		t.Errorf("expected defaults 100/30, got %d/%d", content.ScorePerWord, content.TimeLimit)
	}
	if content.Words[0].WordText != "cat" || content.Words[1].WordText != "dog" {
		t.Errorf("expected normalized words, got %q %q", content.Words[0].WordText, content.Words[1].WordText)
	}
	if content.Words[0].WordImage == nil || !strings.HasPrefix(*content.Words[0].WordImage, ns+"/") {
		t.Errorf("word image %v outside game namespace", content.Words[0].WordImage)
	}
}

func TestCreateSpellGameDuplicateName(t *testing.T) {
	env := newTestEnv()
	seedGame(env, "existing", 1, true, "t.png", seededContent(100, map[string]string{"cat": "a.png"}))
	env.games.games["existing"].Name = "Animals"

	req := createRequest("Animals", []SpellWordInput{
		{WordText: "dog", ImageSlot: AssetSlot{Index: intPtr(0)}},
	}, 1, 0)

	_, err := env.svc.Create(context.Background(), req, 7)
	assertAppError(t, err, http.StatusConflict)
}

func TestCreateSpellGameRejectsBadWord(t *testing.T) {
	env := newTestEnv()
	req := createRequest("Numbers", []SpellWordInput{
		{WordText: "c4t", ImageSlot: AssetSlot{Index: intPtr(0)}},
	}, 1, 0)

	_, err := env.svc.Create(context.Background(), req, 7)
	assertAppError(t, err, http.StatusBadRequest)
}

func TestCreateSpellGameRangeValidation(t *testing.T) {
	env := newTestEnv()
	req := createRequest("Bad", []SpellWordInput{
		{WordText: "cat", ImageSlot: AssetSlot{Index: intPtr(0)}},
	}, 1, 0)
	req.ScorePerWord = 5000

	_, err := env.svc.Create(context.Background(), req, 7)
	assertAppError(t, err, http.StatusBadRequest)
}

func TestGetDetailOwnerOnly(t *testing.T) {
	env := newTestEnv()
	seedGame(env, "g1", 7, false, "t.png", seededContent(100, map[string]string{"cat": "a.png"}))

	detail, err := env.svc.GetDetail("g1", 7, model.RoleUser)
	if err != nil {
		t.Fatalf("owner detail: %v", err)
	}
	if detail.Content == nil || detail.Content.Words[0].WordText != "cat" {
		t.Error("expected full content with answers for the owner")
	}

	_, err = env.svc.GetDetail("g1", 8, model.RoleUser)
	assertAppError(t, err, http.StatusForbidden)

	if _, err := env.svc.GetDetail("g1", 99, model.RoleSuperAdmin); err != nil {
		t.Fatalf("super admin detail: %v", err)
	}
}

func TestGetPlayViewPublicRequiresPublished(t *testing.T) {
	env := newTestEnv()
	seedGame(env, "g1", 7, false, "t.png", seededContent(100, map[string]string{"cat": "a.png"}))

	_, err := env.svc.GetPlayView("g1", true, model.GuestUserID, "")
	assertAppError(t, err, http.StatusNotFound)
}

func TestGetPlayViewPrivateAccess(t *testing.T) {
	env := newTestEnv()
	seedGame(env, "g1", 7, false, "t.png", seededContent(100, map[string]string{"cat": "a.png"}))

	if _, err := env.svc.GetPlayView("g1", false, 7, model.RoleUser); err != nil {
		t.Fatalf("owner preview: %v", err)
	}

	_, err := env.svc.GetPlayView("g1", false, 8, model.RoleUser)
	assertAppError(t, err, http.StatusForbidden)

	if _, err := env.svc.GetPlayView("g1", false, 99, model.RoleSuperAdmin); err != nil {
		t.Fatalf("super admin preview: %v", err)
	}
}

func TestGetPlayViewShufflesWithoutAnswer(t *testing.T) {
	env := newTestEnv()
	seedGame(env, "g1", 7, true, "t.png", seededContent(100, map[string]string{"banana": "a.png"}))

	view, err := env.svc.GetPlayView("g1", true, model.GuestUserID, "")
	if err != nil {
		t.Fatalf("play view: %v", err)
	}

	word := view.Words[0]
	if word.LetterCount != 6 {
		t.Errorf("expected 6 letters, got %d", word.LetterCount)
	}
	sorted := append([]string(nil), word.ShuffledLetters...)
	sort.Strings(sorted)
	expected := strings.Split("banana", "")
	sort.Strings(expected)
	if strings.Join(sorted, "") != strings.Join(expected, "") {
		t.Errorf("shuffled letters %v are not a permutation of the word", word.ShuffledLetters)
	}

	// 公开试玩计入播放次数
	if env.games.games["g1"].TotalPlayed != 1 {
		t.Errorf("expected total_played 1, got %d", env.games.games["g1"].TotalPlayed)
	}
}

func TestCheckAnswersThroughService(t *testing.T) {
	env := newTestEnv()
	seedGame(env, "g1", 7, true, "t.png", seededContent(100, map[string]string{"cat": "a.png", "dog": "b.png"}))

	result, err := env.svc.CheckAnswers("g1", []SpellingAnswer{
		{WordIndex: 0, UserAnswer: "cat"},
		{WordIndex: 1, UserAnswer: "cow"},
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result.GameID != "g1" {
		t.Errorf("expected game id g1, got %q", result.GameID)
	}
	if result.Score != 100 || result.MaxScore != 200 {
		t.Errorf("expected 100/200, got %d/%d", result.Score, result.MaxScore)
	}
}

func TestUpdateReconcilesAssets(t *testing.T) {
	env := newTestEnv()
	content := &model.SpellTheWordContent{
		ScorePerWord: 100,
		TimeLimit:    30,
		Words: []model.WordItem{
			{WordText: "cat", WordImage: strPtr("ns/old0.png")},
			{WordText: "dog", WordImage: strPtr("ns/old1.png")},
		},
	}
	seedGame(env, "g1", 7, true, "ns/thumb_old.png", content)

	req := UpdateSpellTheWordRequest{
		Words: []SpellWordInput{
			{WordText: "cat", ImageSlot: AssetSlot{Index: intPtr(0)}},
			{WordText: "dog", ImageSlot: AssetSlot{Ref: "ns/old1.png"}},
		},
		Images: []*multipart.FileHeader{{Filename: "new.png"}},
	}

	if err := env.svc.Update(context.Background(), "g1", req, 7, model.RoleUser); err != nil {
		t.Fatalf("update: %v", err)
	}

	// 被替换的 old0 回收，保留的 old1 和未动的封面不回收
	if len(env.assets.deleted) != 1 || env.assets.deleted[0] != "ns/old0.png" {
		t.Fatalf("expected only ns/old0.png to be deleted, got %v", env.assets.deleted)
	}

	updated, _ := model.DecodeSpellTheWordContent(env.games.games["g1"].GameJSON)
	if updated.Words[1].WordImage == nil || *updated.Words[1].WordImage != "ns/old1.png" {
		t.Errorf("expected kept ref for second word, got %v", updated.Words[1].WordImage)
	}
	if updated.Words[0].WordImage == nil || *updated.Words[0].WordImage == "ns/old0.png" {
		t.Errorf("expected first word to use the new upload, got %v", updated.Words[0].WordImage)
	}
}

func TestUpdateRejectsUploadsWithoutWords(t *testing.T) {
	env := newTestEnv()
	seedGame(env, "g1", 7, true, "t.png", seededContent(100, map[string]string{"cat": "a.png"}))

	err := env.svc.Update(context.Background(), "g1", UpdateSpellTheWordRequest{
		Images: []*multipart.FileHeader{{Filename: "stray.png"}},
	}, 7, model.RoleUser)
	assertAppError(t, err, http.StatusBadRequest)

	// 拒绝必须发生在上传之前，否则文件不进任何引用集合，永远回收不到
	if len(env.assets.uploads) != 0 {
		t.Errorf("expected no uploads, got %v", env.assets.uploads)
	}

	err = env.svc.Update(context.Background(), "g1", UpdateSpellTheWordRequest{
		Audio: []*multipart.FileHeader{{Filename: "stray.mp3"}},
	}, 7, model.RoleUser)
	assertAppError(t, err, http.StatusBadRequest)
	if len(env.assets.uploads) != 0 {
		t.Errorf("expected no uploads, got %v", env.assets.uploads)
	}
}

func TestUpdateForbiddenForNonOwner(t *testing.T) {
	env := newTestEnv()
	seedGame(env, "g1", 7, true, "t.png", seededContent(100, map[string]string{"cat": "a.png"}))

	err := env.svc.Update(context.Background(), "g1", UpdateSpellTheWordRequest{
		Name: strPtr("Hijacked"),
	}, 8, model.RoleUser)
	assertAppError(t, err, http.StatusForbidden)
}

func TestUpdatePublishFlagOnly(t *testing.T) {
	env := newTestEnv()
	seedGame(env, "g1", 7, false, "t.png", seededContent(100, map[string]string{"cat": "a.png"}))

	err := env.svc.Update(context.Background(), "g1", UpdateSpellTheWordRequest{
		IsPublish: boolPtr(true),
	}, 7, model.RoleUser)
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	game := env.games.games["g1"]
	if !game.IsPublished {
		t.Error("expected game to be published")
	}
	content, _ := model.DecodeSpellTheWordContent(game.GameJSON)
	if len(content.Words) != 1 || content.Words[0].WordText != "cat" {
		t.Errorf("expected untouched words, got %+v", content.Words)
	}
	if len(env.assets.deleted) != 0 {
		t.Errorf("expected no asset deletions, got %v", env.assets.deleted)
	}
}

func TestDeletePurgesAssets(t *testing.T) {
	env := newTestEnv()
	seedGame(env, "g1", 7, true, "ns/thumb.png", seededContent(100, map[string]string{"cat": "ns/a.png"}))

	if err := env.svc.Delete(context.Background(), "g1", 7, model.RoleUser); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, ok := env.games.games["g1"]; ok {
		t.Error("expected game record to be gone")
	}
	deleted := strings.Join(env.assets.deleted, ",")
	if !strings.Contains(deleted, "ns/a.png") || !strings.Contains(deleted, "ns/thumb.png") {
		t.Errorf("expected word image and thumbnail purged, got %v", env.assets.deleted)
	}
}

func TestDeleteFreesGameName(t *testing.T) {
	env := newTestEnv()
	game := seedGame(env, "g1", 7, true, "t.png", seededContent(100, map[string]string{"cat": "a.png"}))
	game.Name = "Animals"

	if err := env.svc.Delete(context.Background(), "g1", 7, model.RoleUser); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// 删除后名字可以重新使用，不能留下占着唯一索引的残留行
	req := createRequest("Animals", []SpellWordInput{
		{WordText: "dog", ImageSlot: AssetSlot{Index: intPtr(0)}},
	}, 1, 0)
	if _, err := env.svc.Create(context.Background(), req, 7); err != nil {
		t.Fatalf("recreate with freed name: %v", err)
	}
}

func TestSubmitScoreKeepsBest(t *testing.T) {
	env := newTestEnv()
	seedGame(env, "g1", 7, true, "t.png", seededContent(100, map[string]string{"cat": "a.png"}))

	first, err := env.svc.SubmitScore(context.Background(), "g1", 5, SubmitScoreRequest{
		PlayerName: "Alice", Score: 100, MaxScore: 200, TimeTaken: 40, Accuracy: 50,
	})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if !first.Updated || first.Message != "Score submitted successfully" {
		t.Fatalf("expected accepted submission, got %+v", first)
	}

	lower, err := env.svc.SubmitScore(context.Background(), "g1", 5, SubmitScoreRequest{
		PlayerName: "Alice", Score: 50, MaxScore: 200, TimeTaken: 10, Accuracy: 25,
	})
	if err != nil {
		t.Fatalf("lower submit: %v", err)
	}
	if lower.Updated || lower.Message != "Existing score is better" {
		t.Fatalf("expected rejected submission, got %+v", lower)
	}
	if lower.ID != first.ID {
		t.Errorf("expected same entry id, got %d vs %d", lower.ID, first.ID)
	}

	higher, err := env.svc.SubmitScore(context.Background(), "g1", 5, SubmitScoreRequest{
		PlayerName: "Alice", Score: 150, MaxScore: 200, TimeTaken: 35, Accuracy: 75,
	})
	if err != nil {
		t.Fatalf("higher submit: %v", err)
	}
	if !higher.Updated {
		t.Fatal("expected higher score to be accepted")
	}

	stored, _ := env.leaderboards.FindByGameAndUser("g1", 5)
	if stored.Score != 150 {
		t.Errorf("expected stored score 150, got %d", stored.Score)
	}
}

func TestSubmitScoreGuestBucket(t *testing.T) {
	env := newTestEnv()
	seedGame(env, "g1", 7, true, "t.png", seededContent(100, map[string]string{"cat": "a.png"}))

	if _, err := env.svc.SubmitScore(context.Background(), "g1", model.GuestUserID, SubmitScoreRequest{
		PlayerName: "Guest", Score: 80, MaxScore: 100, TimeTaken: 20, Accuracy: 80,
	}); err != nil {
		t.Fatalf("guest submit: %v", err)
	}
	if _, err := env.svc.SubmitScore(context.Background(), "g1", 5, SubmitScoreRequest{
		PlayerName: "Alice", Score: 60, MaxScore: 100, TimeTaken: 25, Accuracy: 60,
	}); err != nil {
		t.Fatalf("user submit: %v", err)
	}

	// 游客与登录用户互不覆盖
	if len(env.leaderboards.entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(env.leaderboards.entries))
	}
}

func TestSubmitScoreUnknownGame(t *testing.T) {
	env := newTestEnv()
	_, err := env.svc.SubmitScore(context.Background(), "nope", 5, SubmitScoreRequest{
		PlayerName: "Alice", Score: 10,
	})
	assertAppError(t, err, http.StatusNotFound)
}

func TestGetLeaderboardOrderingAndGuests(t *testing.T) {
	env := newTestEnv()
	seedGame(env, "g1", 7, true, "t.png", seededContent(100, map[string]string{"cat": "a.png"}))

	env.leaderboards.entries[lbKey("g1", model.GuestUserID)] = &model.LeaderboardEntry{
		ID: 1, GameID: "g1", UserID: model.GuestUserID, PlayerName: "Guest", Score: 90, TimeTaken: 30,
	}
	env.leaderboards.entries[lbKey("g1", 5)] = &model.LeaderboardEntry{
		ID: 2, GameID: "g1", UserID: 5, PlayerName: "Alice", Score: 90, TimeTaken: 20,
		User: &model.User{BaseModel: model.BaseModel{ID: 5}, Name: "Alice", Avatar: "a.png"},
	}
	env.leaderboards.entries[lbKey("g1", 6)] = &model.LeaderboardEntry{
		ID: 3, GameID: "g1", UserID: 6, PlayerName: "Bob", Score: 100, TimeTaken: 50,
		User: &model.User{BaseModel: model.BaseModel{ID: 6}, Name: "Bob"},
	}

	rows, err := env.svc.GetLeaderboard(context.Background(), "g1", 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	// 分数降序，平分时用时升序
	if rows[0].PlayerName != "Bob" || rows[1].PlayerName != "Alice" || rows[2].PlayerName != "Guest" {
		t.Errorf("unexpected ordering: %s, %s, %s", rows[0].PlayerName, rows[1].PlayerName, rows[2].PlayerName)
	}

	if rows[1].User == nil || rows[1].User.Name != "Alice" {
		t.Error("expected profile for registered player")
	}
	if rows[2].User != nil {
		t.Error("expected no profile for guest entry")
	}
}

func TestGetLeaderboardLimit(t *testing.T) {
	env := newTestEnv()
	seedGame(env, "g1", 7, true, "t.png", seededContent(100, map[string]string{"cat": "a.png"}))

	for i := uint(1); i <= 5; i++ {
		env.leaderboards.entries[lbKey("g1", i)] = &model.LeaderboardEntry{
			ID: i, GameID: "g1", UserID: i, PlayerName: fmt.Sprintf("p%d", i), Score: int(i * 10),
		}
	}

	rows, err := env.svc.GetLeaderboard(context.Background(), "g1", 2)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Score != 50 || rows[1].Score != 40 {
		t.Errorf("expected top scores 50,40 got %d,%d", rows[0].Score, rows[1].Score)
	}
}
