package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	SpeakerUser = "user"
	SpeakerAI   = "ai"
)

const (
	InputModeText  = "text"
	InputModeVoice = "voice"
)

// ConversationTurn is one utterance. Turns are written once and never
// mutated; turn numbers are 1-based and contiguous per conversation, with
// turn 1 always the AI opening. The unique index backs that up at the store.
type ConversationTurn struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ConversationID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_turn_conversation_number" json:"conversation_id"`
	Conversation   *Conversation  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConversationID;references:ID" json:"conversation,omitempty"`
	TurnNumber     int            `gorm:"not null;uniqueIndex:idx_turn_conversation_number;column:turn_number" json:"turn_number"`
	Speaker        string         `gorm:"not null;column:speaker" json:"speaker"`
	UserInputText  string         `gorm:"type:text;column:user_input_text" json:"user_input_text,omitempty"`
	InputMode      string         `gorm:"column:input_mode" json:"input_mode,omitempty"`
	UserAudioURL   string         `gorm:"column:user_audio_url" json:"user_audio_url,omitempty"`
	AIResponseText string         `gorm:"type:text;column:ai_response_text" json:"ai_response_text,omitempty"`
	Feedback       datatypes.JSON `gorm:"type:jsonb;column:feedback" json:"feedback,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (ConversationTurn) TableName() string { return "conversation_turn" }
