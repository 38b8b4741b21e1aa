package service

import (
	"math/rand"
	"reflect"
	"sort"
	"strings"
	"testing"

	"minigame_backend/internal/model"
)

func testContent(scorePerWord int, words ...string) *model.SpellTheWordContent {
	items := make([]model.WordItem, 0, len(words))
	for _, w := range words {
		items = append(items, model.WordItem{WordText: w})
	}
	return &model.SpellTheWordContent{
		ScorePerWord: scorePerWord,
		TimeLimit:    30,
		Words:        items,
	}
}

func TestCheckSpellingAnswersAllCorrect(t *testing.T) {
	content := testContent(100, "cat", "dog")
	answers := []SpellingAnswer{
		{WordIndex: 0, UserAnswer: "cat"},
		{WordIndex: 1, UserAnswer: "dog"},
	}

	result := CheckSpellingAnswers(content, answers)

	if result.CorrectAnswers != 2 || result.IncorrectAnswers != 0 {
		t.Fatalf("expected 2 correct / 0 incorrect, got %d / %d", result.CorrectAnswers, result.IncorrectAnswers)
	}
	if result.Score != 200 || result.MaxScore != 200 {
		t.Fatalf("expected 200/200, got %d/%d", result.Score, result.MaxScore)
	}
	if result.Percentage != 100 {
		t.Fatalf("expected 100%%, got %v", result.Percentage)
	}
}

func TestCheckSpellingAnswersNormalization(t *testing.T) {
	content := testContent(100, "cat")
	result := CheckSpellingAnswers(content, []SpellingAnswer{
		{WordIndex: 0, UserAnswer: "  CAT "},
	})
	if !result.Results[0].IsCorrect {
		t.Fatal("expected case/whitespace insensitive match")
	}
}

func TestCheckSpellingAnswersOutOfRange(t *testing.T) {
	content := testContent(100, "cat", "dog")
	answers := []SpellingAnswer{
		{WordIndex: 5, UserAnswer: "bird"},
		{WordIndex: 0, UserAnswer: "cat"},
	}

	result := CheckSpellingAnswers(content, answers)

	bad := result.Results[0]
	if bad.IsCorrect {
		t.Error("out of range answer must not be correct")
	}
	if bad.CorrectAnswer != "N/A" {
		t.Errorf("expected correct_answer N/A, got %q", bad.CorrectAnswer)
	}
	if bad.Error != "Word index out of range" {
		t.Errorf("unexpected error message %q", bad.Error)
	}

	// 越界不应中断整批判定
	if !result.Results[1].IsCorrect {
		t.Error("valid answer after an out of range one must still be graded")
	}
	if result.CorrectAnswers != 1 || result.IncorrectAnswers != 1 {
		t.Errorf("expected 1 correct / 1 incorrect, got %d / %d", result.CorrectAnswers, result.IncorrectAnswers)
	}
}

func TestCheckSpellingAnswersRounding(t *testing.T) {
	content := testContent(100, "cat", "dog", "owl")
	result := CheckSpellingAnswers(content, []SpellingAnswer{
		{WordIndex: 0, UserAnswer: "cat"},
		{WordIndex: 1, UserAnswer: "wrong"},
		{WordIndex: 2, UserAnswer: "wrong"},
	})
	if result.Percentage != 33.33 {
		t.Fatalf("expected 33.33, got %v", result.Percentage)
	}
}

func TestCheckSpellingAnswersZeroMaxScore(t *testing.T) {
	content := &model.SpellTheWordContent{ScorePerWord: 0, Words: nil}
	result := CheckSpellingAnswers(content, nil)
	if result.Percentage != 0 {
		t.Fatalf("expected 0%% on empty game, got %v", result.Percentage)
	}
}

func TestCheckSpellingAnswersDeterministic(t *testing.T) {
	content := testContent(50, "cat", "dog")
	answers := []SpellingAnswer{
		{WordIndex: 0, UserAnswer: "cat"},
		{WordIndex: 1, UserAnswer: "cow"},
	}
	first := CheckSpellingAnswers(content, answers)
	second := CheckSpellingAnswers(content, answers)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("grading must be deterministic for identical input")
	}
}

func TestShuffleLettersPreservesMultiset(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	word := "banana"

	letters := shuffleLetters(word, rng.Intn)
	if len(letters) != len(word) {
		t.Fatalf("expected %d letters, got %d", len(word), len(letters))
	}

	sorted := append([]string(nil), letters...)
	sort.Strings(sorted)
	expected := strings.Split(word, "")
	sort.Strings(expected)
	if !reflect.DeepEqual(sorted, expected) {
		t.Fatalf("shuffle changed the letter multiset: %v vs %v", sorted, expected)
	}
}

func TestShuffleLettersDeterministicWithSeed(t *testing.T) {
	first := shuffleLetters("elephant", rand.New(rand.NewSource(7)).Intn)
	second := shuffleLetters("elephant", rand.New(rand.NewSource(7)).Intn)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("same seed must produce the same permutation")
	}
}
