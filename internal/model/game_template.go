package model

// 内置游戏模板的 slug
const (
	SpellTheWordSlug = "spell-the-word"
	QuizSlug         = "quiz"
	PairOrNoPairSlug = "pair-or-no-pair"
)

// GameTemplate 游戏模板：决定 games.game_json 的内容形态
// swagger:model GameTemplate
type GameTemplate struct {
	BaseModel
	Slug string `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	Name string `gorm:"size:128;not null" json:"name"`
}

func (GameTemplate) TableName() string {
	return "game_templates"
}
