package repository

import (
	"minigame_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LeaderboardRepository struct {
	DB *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) *LeaderboardRepository {
	return &LeaderboardRepository{DB: db}
}

func (r *LeaderboardRepository) FindByGameAndUser(gameID string, userID uint) (*model.LeaderboardEntry, error) {
	var entry model.LeaderboardEntry
	err := r.DB.Where("game_id = ? AND user_id = ?", gameID, userID).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpsertBest 单条带条件的 upsert：只有新成绩严格更高才覆盖整行。
// 两次并发提交会在 (game_id, user_id) 唯一键上冲突，由 MySQL 的
// ON DUPLICATE KEY UPDATE 解决，不存在读后写的丢失更新窗口。
// score 必须放在最后赋值：MySQL 从左到右求值，前面的 IF 还要引用旧 score。
func (r *LeaderboardRepository) UpsertBest(entry *model.LeaderboardEntry) error {
	assignments := clause.Set{
		{Column: clause.Column{Name: "player_name"}, Value: gorm.Expr("IF(VALUES(score) > score, VALUES(player_name), player_name)")},
		{Column: clause.Column{Name: "max_score"}, Value: gorm.Expr("IF(VALUES(score) > score, VALUES(max_score), max_score)")},
		{Column: clause.Column{Name: "time_taken"}, Value: gorm.Expr("IF(VALUES(score) > score, VALUES(time_taken), time_taken)")},
		{Column: clause.Column{Name: "accuracy"}, Value: gorm.Expr("IF(VALUES(score) > score, VALUES(accuracy), accuracy)")},
		{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("IF(VALUES(score) > score, VALUES(updated_at), updated_at)")},
		{Column: clause.Column{Name: "score"}, Value: gorm.Expr("IF(VALUES(score) > score, VALUES(score), score)")},
	}

	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game_id"}, {Name: "user_id"}},
		DoUpdates: assignments,
	}).Create(entry).Error
}

// TopByGame 按分数降序、用时升序取前 limit 条，附带玩家公开资料
func (r *LeaderboardRepository) TopByGame(gameID string, limit int) ([]model.LeaderboardEntry, error) {
	var entries []model.LeaderboardEntry
	err := r.DB.Preload("User").
		Where("game_id = ?", gameID).
		Order("score DESC, time_taken ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
