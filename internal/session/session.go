// Package session holds per-user bot state and the stores that persist it
// between Telegram updates.
package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/assistant"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/cart"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/checkout"
)

// MaxAIHistory caps the assistant turns kept per user.
const MaxAIHistory = 20

// ErrNotFound is returned by Store.Get when no session exists for a user.
var ErrNotFound = errors.New("session not found")

// Mode selects how free text from the user is interpreted.
type Mode string

const (
	ModeMenu     Mode = "menu"
	ModeBrowse   Mode = "browse"
	ModeSearch   Mode = "search"
	ModeTrack    Mode = "track"
	ModeAI       Mode = "ai"
	ModeCheckout Mode = "checkout"
)

// Session is everything the bot remembers about one Telegram user.
type Session struct {
	UserID     int64            `json:"userId"`
	ChatID     int64            `json:"chatId"`
	Mode       Mode             `json:"mode"`
	Cart       cart.Cart        `json:"cart"`
	Draft      checkout.Draft   `json:"draft"`
	OrderID    string           `json:"orderId,omitempty"` // last confirmed order
	AIHistory  []assistant.Turn `json:"aiHistory,omitempty"`
	CategoryID int64            `json:"categoryId,omitempty"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// New returns an empty session in menu mode.
func New(userID, chatID int64) *Session {
	return &Session{UserID: userID, ChatID: chatID, Mode: ModeMenu}
}

// AppendAI records assistant turns, keeping only the most recent
// MaxAIHistory.
func (s *Session) AppendAI(turns ...assistant.Turn) {
	s.AIHistory = append(s.AIHistory, turns...)
	if n := len(s.AIHistory); n > MaxAIHistory {
		s.AIHistory = append([]assistant.Turn(nil), s.AIHistory[n-MaxAIHistory:]...)
	}
}

// Touch stamps UpdatedAt.
func (s *Session) Touch(now time.Time) { s.UpdatedAt = now.UTC() }

// Store persists sessions keyed by Telegram user id.
type Store interface {
	Get(ctx context.Context, userID int64) (*Session, error)
	Set(ctx context.Context, s *Session) error
	Delete(ctx context.Context, userID int64) error
}

// Load returns the stored session for userID, or a fresh one when none
// exists. The chat id is refreshed in either case.
func Load(ctx context.Context, st Store, userID, chatID int64) (*Session, error) {
	s, err := st.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return New(userID, chatID), nil
	}
	if err != nil {
		return nil, err
	}
	s.ChatID = chatID
	return s, nil
}

func key(userID int64) string { return "bot:session:" + strconv.FormatInt(userID, 10) }
