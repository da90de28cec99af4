package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/huayu-app/huayu-backend/internal/logger"
	"github.com/huayu-app/huayu-backend/internal/types"
)

// Feedback is the structured critique attached to an AI turn.
type Feedback struct {
	Grammar    []FeedbackItem `json:"grammar,omitempty"`
	Vocabulary []FeedbackItem `json:"vocabulary,omitempty"`
}

type FeedbackItem struct {
	Type        string `json:"type"`
	Text        string `json:"text"`
	Pinyin      string `json:"pinyin,omitempty"`
	Meaning     string `json:"meaning,omitempty"`
	Explanation string `json:"explanation"`
}

// DialogueProvider is the response-generation capability behind the
// conversation state machine. Implementations produce text only and never
// persist anything; any conforming implementation (scripted, remote model)
// can stand in without the state machine noticing.
type DialogueProvider interface {
	ProduceOpening(ctx context.Context, scenario *types.Scenario, level *types.HskLevel) (string, error)
	ProduceReply(ctx context.Context, scenario *types.Scenario, level *types.HskLevel, inputText string, history []*types.ConversationTurn) (string, *Feedback, error)
}

// scriptedDialogueProvider is the shipped deterministic provider: keyword
// routing over a fixed script.
type scriptedDialogueProvider struct {
	log *logger.Logger
}

func NewScriptedDialogueProvider(baseLog *logger.Logger) DialogueProvider {
	providerLog := baseLog.With("service", "ScriptedDialogueProvider")
	return &scriptedDialogueProvider{log: providerLog}
}

func (p *scriptedDialogueProvider) ProduceOpening(ctx context.Context, scenario *types.Scenario, level *types.HskLevel) (string, error) {
	opening := fmt.Sprintf(`你好！欢迎来到中文学习之旅。我是你的AI语言伙伴。我们今天要练习%s。

这是HSK %d级的对话练习。请用中文回答我的问题。如果你需要帮助，可以随时问我。

让我们开始吧！你好，你叫什么名字？`, scenario.Name, level.Level)
	return opening, nil
}

type dialogueRule struct {
	keywords []string
	reply    string
	feedback Feedback
}

var dialogueScript = []dialogueRule{
	{
		keywords: []string{"名字", "叫什么", "你好"},
		reply:    "很高兴认识你！你来中国旅游了吗？",
		feedback: Feedback{
			Grammar: []FeedbackItem{
				{Type: "correct", Text: "你好", Explanation: "Good use of greeting"},
			},
			Vocabulary: []FeedbackItem{
				{Type: "suggestion", Text: "认识", Pinyin: "rèn shi", Meaning: "to know/to recognize", Explanation: "You can use this word when introducing yourself"},
			},
		},
	},
	{
		keywords: []string{"旅游", "中国", "来了"},
		reply:    "太好了！你想去中国哪些地方？北京，上海还是其他城市？",
		feedback: Feedback{
			Grammar: []FeedbackItem{
				{Type: "correct", Text: "来了", Explanation: "Good use of the particle 了 to indicate completed action"},
			},
			Vocabulary: []FeedbackItem{
				{Type: "suggestion", Text: "地方", Pinyin: "dì fang", Meaning: "place", Explanation: "Useful word when discussing travel destinations"},
			},
		},
	},
	{
		keywords: []string{"北京", "上海", "城市"},
		reply:    "那个城市很有意思！你喜欢中国菜吗？",
		feedback: Feedback{
			Grammar: []FeedbackItem{
				{Type: "correct", Text: "很有意思", Explanation: "Good use of the adjective structure with 很"},
			},
			Vocabulary: []FeedbackItem{
				{Type: "suggestion", Text: "菜", Pinyin: "cài", Meaning: "dish/cuisine", Explanation: "Used when talking about food"},
			},
		},
	},
	{
		keywords: []string{"喜欢", "菜", "好吃"},
		reply:    "我也喜欢中国菜！你最喜欢的中国菜是什么？",
		feedback: Feedback{
			Grammar: []FeedbackItem{
				{Type: "correct", Text: "喜欢", Explanation: "Good use of the verb 喜欢 (to like)"},
			},
			Vocabulary: []FeedbackItem{
				{Type: "suggestion", Text: "最喜欢", Pinyin: "zuì xǐ huan", Meaning: "favorite/like the most", Explanation: "Used to express preference"},
			},
		},
	},
}

var dialogueFallback = dialogueRule{
	reply: "对不起，我不太明白。你能用简单的中文再说一次吗？",
	feedback: Feedback{
		Grammar: []FeedbackItem{
			{Type: "suggestion", Text: "简单的中文", Explanation: "Try using simpler Chinese sentences"},
		},
		Vocabulary: []FeedbackItem{
			{Type: "suggestion", Text: "再说一次", Pinyin: "zài shuō yī cì", Meaning: "say it again", Explanation: "Useful phrase when you need clarification"},
		},
	},
}

func (p *scriptedDialogueProvider) ProduceReply(ctx context.Context, scenario *types.Scenario, level *types.HskLevel, inputText string, history []*types.ConversationTurn) (string, *Feedback, error) {
	input := strings.ToLower(inputText)
	for _, rule := range dialogueScript {
		for _, kw := range rule.keywords {
			if strings.Contains(input, kw) {
				feedback := rule.feedback
				return rule.reply, &feedback, nil
			}
		}
	}
	feedback := dialogueFallback.feedback
	return dialogueFallback.reply, &feedback, nil
}
