package service

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"minigame_backend/internal/model"
	"minigame_backend/internal/util"
)

// 词条文本只允许英文字母
var wordTextPattern = regexp.MustCompile(`^[A-Za-z]+$`)

// AssetSlot 词条对资源的引用：要么是本次上传文件数组的下标，
// 要么是已存在的对象键（仅更新请求允许）。
type AssetSlot struct {
	Index *int
	Ref   string
}

// IsZero 该词条没有引用这一类资源
func (a AssetSlot) IsZero() bool {
	return a.Index == nil && a.Ref == ""
}

// UnmarshalJSON 数字和数字字符串按下标处理（multipart 表单里数字以字符串出现），
// 其余字符串视为已有对象键
func (a *AssetSlot) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == `""` {
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		a.Index = &n
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		a.Index = &n
		return nil
	}
	a.Ref = s
	return nil
}

// SpellWordInput 作者提交的单个词条
type SpellWordInput struct {
	WordText  string    `json:"word_text"`
	ImageSlot AssetSlot `json:"word_image_array_index"`
	AudioSlot AssetSlot `json:"word_audio_array_index"`
	Hint      string    `json:"hint"`
}

// ParseSpellWords 解析 multipart 表单中的 words JSON 字段
func ParseSpellWords(raw string) ([]SpellWordInput, error) {
	var words []SpellWordInput
	if err := json.Unmarshal([]byte(raw), &words); err != nil {
		return nil, util.NewValidationError("words must be a valid JSON array")
	}
	return words, nil
}

// countIndexedSlots 统计通过数组下标引用新上传文件的词条数量
func countIndexedSlots(words []SpellWordInput) (images, audios int) {
	for _, w := range words {
		if w.ImageSlot.Index != nil {
			images++
		}
		if w.AudioSlot.Index != nil {
			audios++
		}
	}
	return images, audios
}

// ValidateSpellWords 第一阶段：校验词条文本和上传文件数量的匹配关系。
// 数量规则是严格相等：每个上传的文件都必须被某个下标消费。
// requireImagePerWord 只在创建时为真（创建时每个词条必须带图片）。
func ValidateSpellWords(words []SpellWordInput, imageCount, audioCount int, requireImagePerWord bool) error {
	if len(words) == 0 {
		return util.NewValidationError("at least one word is required")
	}

	for _, w := range words {
		text := strings.TrimSpace(w.WordText)
		if !wordTextPattern.MatchString(text) {
			return util.NewValidationError("word %q should only contain letters", w.WordText)
		}
		if len(text) > 64 {
			return util.NewValidationError("word %q is too long (max 64 letters)", w.WordText)
		}
		if len(strings.TrimSpace(w.Hint)) > 256 {
			return util.NewValidationError("hint for word %q is too long (max 256 characters)", w.WordText)
		}
	}

	indexedImages, indexedAudios := countIndexedSlots(words)

	if requireImagePerWord && indexedImages != len(words) {
		return util.NewValidationError("each word must have an image")
	}
	if imageCount > 0 && indexedImages != imageCount {
		return util.NewValidationError("all uploaded image files must be used")
	}
	if audioCount > 0 && indexedAudios != audioCount {
		return util.NewValidationError("all uploaded audio files must be used")
	}
	return nil
}

// ResolveSpellWords 第二阶段：把下标换成本次上传产生的对象键，
// 字符串引用原样保留（仅 allowExisting 时合法）。词条文本在这里归一化，
// 入库后评分只做相等比较。
func ResolveSpellWords(words []SpellWordInput, imageRefs, audioRefs []string, allowExisting bool) ([]model.WordItem, error) {
	items := make([]model.WordItem, 0, len(words))

	resolve := func(slot AssetSlot, refs []string, kind string) (*string, error) {
		if slot.Index != nil {
			i := *slot.Index
			if i < 0 || i >= len(refs) {
				return nil, util.NewValidationError("%s index %d is out of range", kind, i)
			}
			return &refs[i], nil
		}
		if slot.Ref != "" {
			if !allowExisting {
				return nil, util.NewValidationError("existing %s references are only allowed when updating", kind)
			}
			ref := slot.Ref
			return &ref, nil
		}
		return nil, nil
	}

	for _, w := range words {
		image, err := resolve(w.ImageSlot, imageRefs, "image")
		if err != nil {
			return nil, err
		}
		audio, err := resolve(w.AudioSlot, audioRefs, "audio")
		if err != nil {
			return nil, err
		}

		item := model.WordItem{
			WordText:  strings.ToLower(strings.TrimSpace(w.WordText)),
			WordImage: image,
			WordAudio: audio,
		}
		if hint := strings.TrimSpace(w.Hint); hint != "" {
			item.Hint = &hint
		}
		items = append(items, item)
	}
	return items, nil
}
