package service

import (
	"encoding/json"
	"testing"
)

func intPtr(n int) *int { return &n }

func TestAssetSlotUnmarshal(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		index *int
		ref   string
	}{
		{"number", `3`, intPtr(3), ""},
		{"numeric string", `"2"`, intPtr(2), ""},
		{"object key", `"game/spell-the-word/abc/img.png"`, nil, "game/spell-the-word/abc/img.png"},
		{"null", `null`, nil, ""},
		{"empty string", `""`, nil, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var slot AssetSlot
			if err := json.Unmarshal([]byte(tc.raw), &slot); err != nil {
				t.Fatalf("unmarshal %s: %v", tc.raw, err)
			}
			if tc.index == nil && slot.Index != nil {
				t.Fatalf("expected no index, got %d", *slot.Index)
			}
			if tc.index != nil {
				if slot.Index == nil {
					t.Fatalf("expected index %d, got none", *tc.index)
				}
				if *slot.Index != *tc.index {
					t.Fatalf("expected index %d, got %d", *tc.index, *slot.Index)
				}
			}
			if slot.Ref != tc.ref {
				t.Fatalf("expected ref %q, got %q", tc.ref, slot.Ref)
			}
		})
	}
}

func TestParseSpellWordsInvalidJSON(t *testing.T) {
	if _, err := ParseSpellWords("not json"); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestValidateSpellWords(t *testing.T) {
	cases := []struct {
		name        string
		words       []SpellWordInput
		imageCount  int
		audioCount  int
		requireImg  bool
		expectError bool
	}{
		{
			name:        "empty words",
			words:       nil,
			expectError: true,
		},
		{
			name: "word with digits rejected",
			words: []SpellWordInput{
				{WordText: "c4t", ImageSlot: AssetSlot{Index: intPtr(0)}},
			},
			imageCount:  1,
			expectError: true,
		},
		{
			name: "word with spaces rejected",
			words: []SpellWordInput{
				{WordText: "two words", ImageSlot: AssetSlot{Index: intPtr(0)}},
			},
			imageCount:  1,
			expectError: true,
		},
		{
			name: "create requires image per word",
			words: []SpellWordInput{
				{WordText: "cat", ImageSlot: AssetSlot{Index: intPtr(0)}},
				{WordText: "dog"},
			},
			imageCount:  1,
			requireImg:  true,
			expectError: true,
		},
		{
			name: "unused image file rejected",
			words: []SpellWordInput{
				{WordText: "cat", ImageSlot: AssetSlot{Index: intPtr(0)}},
			},
			imageCount:  2,
			requireImg:  true,
			expectError: true,
		},
		{
			name: "unused audio file rejected",
			words: []SpellWordInput{
				{WordText: "cat", ImageSlot: AssetSlot{Index: intPtr(0)}},
			},
			imageCount:  1,
			audioCount:  1,
			requireImg:  true,
			expectError: true,
		},
		{
			name: "audio optional",
			words: []SpellWordInput{
				{WordText: "cat", ImageSlot: AssetSlot{Index: intPtr(0)}},
				{WordText: "dog", ImageSlot: AssetSlot{Index: intPtr(1)}},
			},
			imageCount: 2,
			requireImg: true,
		},
		{
			name: "update allows existing refs without uploads",
			words: []SpellWordInput{
				{WordText: "cat", ImageSlot: AssetSlot{Ref: "game/spell-the-word/x/a.png"}},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSpellWords(tc.words, tc.imageCount, tc.audioCount, tc.requireImg)
			if tc.expectError && err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !tc.expectError && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestResolveSpellWords(t *testing.T) {
	images := []string{"ns/a.png", "ns/b.png"}
	audio := []string{"ns/a.mp3"}

	words := []SpellWordInput{
		{WordText: "  CAT ", ImageSlot: AssetSlot{Index: intPtr(0)}, AudioSlot: AssetSlot{Index: intPtr(0)}, Hint: "  a pet  "},
		{WordText: "Dog", ImageSlot: AssetSlot{Index: intPtr(1)}},
	}

	items, err := ResolveSpellWords(words, images, audio, false)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if items[0].WordText != "cat" {
		t.Errorf("expected normalized text %q, got %q", "cat", items[0].WordText)
	}
	if items[0].WordImage == nil || *items[0].WordImage != "ns/a.png" {
		t.Errorf("expected image ns/a.png, got %v", items[0].WordImage)
	}
	if items[0].WordAudio == nil || *items[0].WordAudio != "ns/a.mp3" {
		t.Errorf("expected audio ns/a.mp3, got %v", items[0].WordAudio)
	}
	if items[0].Hint == nil || *items[0].Hint != "a pet" {
		t.Errorf("expected trimmed hint, got %v", items[0].Hint)
	}
	if items[1].WordText != "dog" {
		t.Errorf("expected %q, got %q", "dog", items[1].WordText)
	}
	if items[1].WordAudio != nil {
		t.Errorf("expected no audio for second word, got %v", *items[1].WordAudio)
	}
}

func TestResolveSpellWordsIndexOutOfRange(t *testing.T) {
	words := []SpellWordInput{
		{WordText: "cat", ImageSlot: AssetSlot{Index: intPtr(3)}},
	}
	if _, err := ResolveSpellWords(words, []string{"ns/a.png"}, nil, false); err == nil {
		t.Fatal("expected out of range error")
	}
}

func TestResolveSpellWordsExistingRef(t *testing.T) {
	words := []SpellWordInput{
		{WordText: "cat", ImageSlot: AssetSlot{Ref: "ns/existing.png"}},
	}

	if _, err := ResolveSpellWords(words, nil, nil, false); err == nil {
		t.Fatal("expected existing refs to be rejected on create")
	}

	items, err := ResolveSpellWords(words, nil, nil, true)
	if err != nil {
		t.Fatalf("resolve with existing ref: %v", err)
	}
	if items[0].WordImage == nil || *items[0].WordImage != "ns/existing.png" {
		t.Errorf("expected kept ref, got %v", items[0].WordImage)
	}
}
