package service

import (
	"math"
	"strings"

	"minigame_backend/internal/model"
)

// SpellingAnswer 玩家对单个词条的作答
type SpellingAnswer struct {
	WordIndex  int    `json:"word_index" binding:"min=0"`
	UserAnswer string `json:"user_answer" binding:"max=64"`
}

// SpellingAnswerResult 单个词条的判定结果。下标越界不会中断整批判定，
// 而是作为失败条目嵌入结果里。
type SpellingAnswerResult struct {
	WordIndex     int    `json:"word_index"`
	UserAnswer    string `json:"user_answer"`
	IsCorrect     bool   `json:"is_correct"`
	CorrectAnswer string `json:"correct_answer"`
	Error         string `json:"error,omitempty"`
}

// SpellingCheckResult 整批作答的评分汇总
type SpellingCheckResult struct {
	GameID           string                 `json:"game_id"`
	TotalWords       int                    `json:"total_words"`
	CorrectAnswers   int                    `json:"correct_answers"`
	IncorrectAnswers int                    `json:"incorrect_answers"`
	Score            int                    `json:"score"`
	MaxScore         int                    `json:"max_score"`
	Percentage       float64                `json:"percentage"`
	Results          []SpellingAnswerResult `json:"results"`
}

// CheckSpellingAnswers 纯评分函数：相同内容和相同作答永远得到相同结果。
// 作答文本先做与入库一致的归一化（小写、去首尾空白）再比较。
func CheckSpellingAnswers(content *model.SpellTheWordContent, answers []SpellingAnswer) SpellingCheckResult {
	results := make([]SpellingAnswerResult, 0, len(answers))
	correctCount := 0

	for _, answer := range answers {
		userAnswer := strings.ToLower(strings.TrimSpace(answer.UserAnswer))

		if answer.WordIndex < 0 || answer.WordIndex >= len(content.Words) {
			results = append(results, SpellingAnswerResult{
				WordIndex:     answer.WordIndex,
				UserAnswer:    userAnswer,
				IsCorrect:     false,
				CorrectAnswer: "N/A",
				Error:         "Word index out of range",
			})
			continue
		}

		word := content.Words[answer.WordIndex]
		isCorrect := userAnswer == word.WordText
		if isCorrect {
			correctCount++
		}

		results = append(results, SpellingAnswerResult{
			WordIndex:     answer.WordIndex,
			UserAnswer:    userAnswer,
			IsCorrect:     isCorrect,
			CorrectAnswer: word.WordText,
		})
	}

	score := correctCount * content.ScorePerWord
	maxScore := len(content.Words) * content.ScorePerWord
	percentage := 0.0
	if maxScore > 0 {
		percentage = float64(score) / float64(maxScore) * 100
	}

	return SpellingCheckResult{
		TotalWords:       len(content.Words),
		CorrectAnswers:   correctCount,
		IncorrectAnswers: len(answers) - correctCount,
		Score:            score,
		MaxScore:         maxScore,
		Percentage:       math.Round(percentage*100) / 100,
		Results:          results,
	}
}

// shuffleLetters 对词条字符做 Fisher–Yates 洗牌；intn 由调用方注入，
// 测试用固定种子即可复现
func shuffleLetters(text string, intn func(int) int) []string {
	letters := strings.Split(text, "")
	for i := len(letters) - 1; i > 0; i-- {
		j := intn(i + 1)
		letters[i], letters[j] = letters[j], letters[i]
	}
	return letters
}
