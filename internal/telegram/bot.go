package telegram

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	greetingText = "Hi! I am an LLM assistant."
	clearedText  = "Dialog history cleared."
	failureText  = "Something went wrong, please try again later."

	// Bot API rejects longer messages.
	maxMessageRunes = 4096
)

// Dialog is the conversation backend. Implemented by chat.Service.
type Dialog interface {
	Reply(ctx context.Context, userID int64, text string) (string, error)
	Clear(ctx context.Context, userID int64) error
}

type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type Bot struct {
	dialog   Dialog
	sender   Sender
	roleName string
	roleDesc string
	log      *zap.Logger
}

func NewBot(dialog Dialog, sender Sender, roleName, roleDesc string, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{dialog: dialog, sender: sender, roleName: roleName, roleDesc: roleDesc, log: log.With(zap.String("component", "bot"))}
}

// command returns the bot command of text without the leading slash and any @botname suffix.
func command(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	cmd := strings.Fields(text)[0][1:]
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), true
}

// HandleUpdate processes one update. Messages without text or sender are ignored.
func (b *Bot) HandleUpdate(ctx context.Context, u Update) {
	m := u.Message
	if m == nil || m.From == nil || strings.TrimSpace(m.Text) == "" {
		return
	}
	userID := m.From.ID
	log := b.log.With(zap.Int64("user_id", userID), zap.Int64("chat_id", m.Chat.ID))

	if cmd, ok := command(m.Text); ok {
		switch cmd {
		case "start":
			b.send(ctx, log, m.Chat.ID, greetingText)
			return
		case "role":
			b.send(ctx, log, m.Chat.ID, "🤖 "+b.roleName+"\n\n"+b.roleDesc)
			return
		case "clear":
			if err := b.dialog.Clear(ctx, userID); err != nil {
				b.send(ctx, log, m.Chat.ID, failureText)
				return
			}
			b.send(ctx, log, m.Chat.ID, clearedText)
			return
		}
	}

	reply, err := b.dialog.Reply(ctx, userID, m.Text)
	if err != nil {
		log.Error("llm_error", zap.Error(err))
		b.send(ctx, log, m.Chat.ID, failureText)
		return
	}
	b.send(ctx, log, m.Chat.ID, reply)
}

func (b *Bot) send(ctx context.Context, log *zap.Logger, chatID int64, text string) {
	for _, part := range splitText(text, maxMessageRunes) {
		if err := b.sender.SendMessage(ctx, chatID, part); err != nil {
			log.Error("send_message_failed", zap.Error(err))
			return
		}
	}
}

// splitText cuts text into chunks of at most n runes.
func splitText(text string, n int) []string {
	if utf8.RuneCountInString(text) <= n {
		return []string{text}
	}
	var parts []string
	r := []rune(text)
	for len(r) > n {
		parts = append(parts, string(r[:n]))
		r = r[n:]
	}
	if len(r) > 0 {
		parts = append(parts, string(r))
	}
	return parts
}
