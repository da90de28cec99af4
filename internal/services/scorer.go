package services

import (
	"math/rand"
)

// TurnScorer computes the score credited for one user turn. It is an
// injection point: the shipped scorer is uniform noise, but a real
// implementation would derive the score from the feedback.
type TurnScorer interface {
	ComputeTurnScore(inputText, replyText string, feedback *Feedback) int
}

type randomTurnScorer struct{}

func NewRandomTurnScorer() TurnScorer {
	return &randomTurnScorer{}
}

func (randomTurnScorer) ComputeTurnScore(inputText, replyText string, feedback *Feedback) int {
	return rand.Intn(10) + 1
}
