package model

import "encoding/json"

// SpellTheWordContent 拼词游戏的内容载荷，整体序列化进 games.game_json。
// WordText 入库前统一小写并去除首尾空白，评分时可直接做相等比较。
type SpellTheWordContent struct {
	ScorePerWord int        `json:"score_per_word"`
	TimeLimit    int        `json:"time_limit"`
	Words        []WordItem `json:"words"`
}

// WordItem 单个词条；图片/音频为已上传资源的路径，可为空
type WordItem struct {
	WordText  string  `json:"word_text"`
	WordImage *string `json:"word_image"`
	WordAudio *string `json:"word_audio"`
	Hint      *string `json:"hint"`
}

// AssetRefs 返回词条引用的全部资源路径（不含封面图）
func (c *SpellTheWordContent) AssetRefs() []string {
	refs := make([]string, 0, len(c.Words)*2)
	for _, w := range c.Words {
		if w.WordImage != nil && *w.WordImage != "" {
			refs = append(refs, *w.WordImage)
		}
		if w.WordAudio != nil && *w.WordAudio != "" {
			refs = append(refs, *w.WordAudio)
		}
	}
	return refs
}

// DecodeSpellTheWordContent 解析 game_json；空载荷返回 nil
func DecodeSpellTheWordContent(raw json.RawMessage) (*SpellTheWordContent, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var content SpellTheWordContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, err
	}
	return &content, nil
}
