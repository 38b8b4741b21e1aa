package repository

import (
	"minigame_backend/internal/model"

	"gorm.io/gorm"
)

type GameRepository struct {
	DB *gorm.DB
}

func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{DB: db}
}

func (r *GameRepository) Create(game *model.Game) error {
	return r.DB.Create(game).Error
}

// FindByID 连同模板一起加载，调用方据此校验内容形态
func (r *GameRepository) FindByID(id string) (*model.Game, error) {
	var game model.Game
	err := r.DB.Preload("GameTemplate").First(&game, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *GameRepository) FindByName(name string) (*model.Game, error) {
	var game model.Game
	err := r.DB.Where("name = ?", name).First(&game).Error
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *GameRepository) Update(id string, updates map[string]interface{}) error {
	return r.DB.Model(&model.Game{}).Where("id = ?", id).Updates(updates).Error
}

// Delete 删除游戏并级联清掉它名下的排行榜记录。
// 游戏行硬删除：软删的墓碑仍占着 games.name 的唯一索引，名字会永远占用，
// 而资源文件此时已经清掉，留墓碑没有意义。
func (r *GameRepository) Delete(id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("game_id = ?", id).Delete(&model.LeaderboardEntry{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.Game{}, "id = ?", id).Error
	})
}

func (r *GameRepository) IncrementTotalPlayed(id string) error {
	return r.DB.Model(&model.Game{}).
		Where("id = ?", id).
		Update("total_played", gorm.Expr("total_played + 1")).
		Error
}
