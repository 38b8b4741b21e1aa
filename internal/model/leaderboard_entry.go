package model

import "time"

// GuestUserID 未登录玩家的保留桶。MySQL 的唯一索引允许多个 NULL，
// 用 0 代替 NULL 才能让 (game_id, user_id) 对游客同样保持"至多一行"
const GuestUserID uint = 0

// LeaderboardEntry 每个 (game, participant) 的最好成绩。
// 不走软删除：唯一索引下残留的软删行会挡住后续覆盖写入。
// swagger:model LeaderboardEntry
type LeaderboardEntry struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	GameID     string    `gorm:"type:varchar(36);uniqueIndex:idx_game_user;not null" json:"gameId"`
	UserID     uint      `gorm:"uniqueIndex:idx_game_user;not null" json:"userId"`
	PlayerName string    `gorm:"size:50;not null" json:"playerName"`
	Score      int       `gorm:"not null" json:"score"`
	MaxScore   int       `gorm:"not null" json:"maxScore"`
	TimeTaken  int       `gorm:"not null" json:"timeTaken"`
	Accuracy   float64   `json:"accuracy"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (LeaderboardEntry) TableName() string {
	return "leaderboards"
}
