package model

import "encoding/json"

// Game 作者创建的一个可玩内容单元；具体玩法数据存放在 GameJSON 中，
// 形态由所属模板决定
// swagger:model Game
type Game struct {
	UUIDBase
	GameTemplateID uint            `gorm:"index;not null" json:"gameTemplateId"`
	CreatorID      uint            `gorm:"index;not null" json:"-"`
	Name           string          `gorm:"size:128;uniqueIndex;not null" json:"name"`
	Description    string          `gorm:"size:256" json:"description"`
	ThumbnailImage string          `gorm:"size:255" json:"thumbnailImage"`
	IsPublished    bool            `gorm:"default:false" json:"isPublished"`
	TotalPlayed    int             `gorm:"default:0" json:"totalPlayed"`
	GameJSON       json.RawMessage `gorm:"type:json" json:"-"`

	GameTemplate *GameTemplate `json:"-"`
}

func (Game) TableName() string {
	return "games"
}
