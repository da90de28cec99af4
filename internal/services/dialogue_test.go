package services

import (
	"context"
	"strings"
	"testing"

	"github.com/huayu-app/huayu-backend/internal/types"
)

func TestScriptedOpeningMentionsScenarioAndLevel(t *testing.T) {
	provider := NewScriptedDialogueProvider(testLogger(t))
	scenario := &types.Scenario{Name: "At the Restaurant"}
	level := &types.HskLevel{Name: "HSK Level 3", Level: 3}

	opening, err := provider.ProduceOpening(context.Background(), scenario, level)
	if err != nil {
		t.Fatalf("produce opening: %v", err)
	}
	if !strings.Contains(opening, "At the Restaurant") {
		t.Error("opening does not mention the scenario")
	}
	if !strings.Contains(opening, "HSK 3级") {
		t.Error("opening does not mention the HSK level")
	}
}

func TestScriptedReplyKeywordRouting(t *testing.T) {
	provider := NewScriptedDialogueProvider(testLogger(t))
	scenario := &types.Scenario{Name: "At the Restaurant"}
	level := &types.HskLevel{Level: 1}

	cases := []struct {
		name      string
		input     string
		wantReply string
	}{
		{"greeting", "你好，我叫李明。", "很高兴认识你！你来中国旅游了吗？"},
		{"travel", "我来中国旅游。", "太好了！你想去中国哪些地方？北京，上海还是其他城市？"},
		{"city", "我想去北京。", "那个城市很有意思！你喜欢中国菜吗？"},
		{"food", "我喜欢吃饺子。", "我也喜欢中国菜！你最喜欢的中国菜是什么？"},
		{"no keyword match", "quantum entanglement", "对不起，我不太明白。你能用简单的中文再说一次吗？"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reply, feedback, err := provider.ProduceReply(context.Background(), scenario, level, tc.input, nil)
			if err != nil {
				t.Fatalf("produce reply: %v", err)
			}
			if reply != tc.wantReply {
				t.Errorf("reply = %q, want %q", reply, tc.wantReply)
			}
			if feedback == nil {
				t.Fatal("every reply must carry feedback")
			}
			if len(feedback.Grammar) == 0 && len(feedback.Vocabulary) == 0 {
				t.Error("feedback has no items")
			}
		})
	}
}

func TestScriptedReplyFirstRuleWins(t *testing.T) {
	provider := NewScriptedDialogueProvider(testLogger(t))
	scenario := &types.Scenario{Name: "Shopping"}
	level := &types.HskLevel{Level: 2}

	// Input matches both the greeting and city rules; rule order decides.
	reply, _, err := provider.ProduceReply(context.Background(), scenario, level, "你好，我想去北京。", nil)
	if err != nil {
		t.Fatalf("produce reply: %v", err)
	}
	if reply != "很高兴认识你！你来中国旅游了吗？" {
		t.Errorf("reply = %q, want the greeting rule's reply", reply)
	}
}
