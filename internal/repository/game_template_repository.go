package repository

import (
	"minigame_backend/internal/model"

	"gorm.io/gorm"
)

type GameTemplateRepository struct {
	DB *gorm.DB
}

func NewGameTemplateRepository(db *gorm.DB) *GameTemplateRepository {
	return &GameTemplateRepository{DB: db}
}

func (r *GameTemplateRepository) FindBySlug(slug string) (*model.GameTemplate, error) {
	var template model.GameTemplate
	err := r.DB.Where("slug = ?", slug).First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}
