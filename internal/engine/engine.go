// Package engine routes incoming chat updates through the workflow. Each
// update resolves its actor and effective role, then dispatches in
// priority order: a parked rejection reason swallows any text first, an
// active capture session consumes field input next, and commands and
// keyboard callbacks handle the rest.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"vcert/internal/capture"
	"vcert/internal/config"
	"vcert/internal/faults"
	"vcert/internal/logging"
	"vcert/internal/moderation"
	"vcert/internal/roles"
	"vcert/internal/session"
	"vcert/internal/store"
	"vcert/internal/telegram"
)

// Messenger is the outbound slice of the chat client the engine uses.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts *telegram.SendOptions) (*telegram.Message, error)
	SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
}

// Notifier delivers workflow events outside the current conversation.
type Notifier interface {
	SubmissionFanout(ctx context.Context, operator *store.User, cert *store.Certificate)
	CertificateApproved(ctx context.Context, cert *store.Certificate)
	CertificateRejected(ctx context.Context, cert *store.Certificate, reason string)
	RoleChanged(ctx context.Context, user *store.User, role store.Role)
	Blocked(ctx context.Context, user *store.User)
}

// Engine is the update dispatcher.
type Engine struct {
	store      *store.Store
	resolver   *roles.Resolver
	messenger  Messenger
	notifier   Notifier
	moderation *moderation.Service
	captures   *session.Store[*capture.Session]
	logger     *slog.Logger
}

// New wires an Engine from its collaborators.
func New(cfg *config.Config, st *store.Store, messenger Messenger, notifier Notifier, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	ttl := time.Duration(cfg.Workflow.SessionExpiryMinutes) * time.Minute
	return &Engine{
		store:      st,
		resolver:   roles.NewResolver(cfg, st),
		messenger:  messenger,
		notifier:   notifier,
		moderation: moderation.NewService(st),
		captures:   session.NewStore[*capture.Session](ttl),
		logger:     logger.With(logging.Component("engine")),
	}
}

// SweepSessions drops idle capture sessions and returns how many.
func (e *Engine) SweepSessions() int {
	return e.captures.Sweep()
}

// HandleUpdate processes one update to completion. Failures are reported
// to the actor in chat and logged; they never propagate to the poll loop.
func (e *Engine) HandleUpdate(ctx context.Context, update telegram.Update) {
	ctx = faults.WithUpdateID(ctx, update.UpdateID)
	switch {
	case update.CallbackQuery != nil:
		e.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		e.handleMessage(ctx, update.Message)
	}
}

func (e *Engine) handleMessage(ctx context.Context, msg *telegram.Message) {
	from := msg.From
	if from == nil || from.IsBot {
		return
	}
	ctx = faults.WithActorID(ctx, from.ID)
	chatID := msg.Chat.ID

	user, role, err := e.resolver.Resolve(ctx, roles.Identity{
		TelegramID: from.ID,
		Username:   from.Username,
		FirstName:  from.FirstName,
		LastName:   from.LastName,
	})
	if err != nil {
		e.logger.ErrorContext(ctx, "resolve actor failed", "error", err)
		e.reply(ctx, chatID, faults.UserMessage(err))
		return
	}
	if user.IsBlocked {
		e.reply(ctx, chatID, blockedMessage)
		return
	}

	if fileID := msg.BestPhoto(); fileID != "" {
		e.handleCapturePhoto(ctx, chatID, from.ID, fileID)
		return
	}

	text := norm.NFC.String(strings.TrimSpace(msg.Text))
	if text == "" {
		return
	}

	// A parked rejection claims every text message, commands included,
	// until a valid reason lands or the decision is lost.
	if _, awaiting := e.moderation.PendingReject(from.ID); awaiting && role == store.RoleAdmin {
		e.handleRejectReason(ctx, chatID, from.ID, user.ID, text)
		return
	}

	if strings.HasPrefix(text, "/") {
		e.handleCommand(ctx, chatID, user, role, text)
		return
	}

	if sess, ok := e.captures.Get(from.ID); ok {
		e.handleCaptureText(ctx, chatID, from.ID, sess, text)
		return
	}

	e.logger.DebugContext(ctx, "unhandled text")
}

const blockedMessage = "🚫 Ваш аккаунт заблокирован. Для выяснения причин обратитесь к администрации."

func (e *Engine) handleCaptureText(ctx context.Context, chatID, actorID int64, sess *capture.Session, text string) {
	prompt, err := sess.HandleText(text)
	if err != nil {
		e.reply(ctx, chatID, faults.UserMessage(err))
		return
	}
	e.captures.Put(actorID, sess)
	e.reply(ctx, chatID, prompt)
}

func (e *Engine) handleCapturePhoto(ctx context.Context, chatID, actorID int64, fileID string) {
	sess, ok := e.captures.Get(actorID)
	if !ok {
		return
	}
	prompt, done, err := sess.HandlePhoto(fileID)
	if err != nil {
		e.reply(ctx, chatID, faults.UserMessage(err))
		return
	}
	e.captures.Put(actorID, sess)
	if !done {
		e.reply(ctx, chatID, prompt)
		return
	}

	if err := e.messenger.SendPhoto(ctx, chatID, sess.Draft.RollPhoto, "Фото рулона"); err != nil {
		e.logger.WarnContext(ctx, "roll photo preview failed", "error", err)
	}
	keyboard := telegram.Keyboard(telegram.Row(
		telegram.Button("✅ Отправить на подтверждение", "submit_certificate"),
		telegram.Button("❌ Отменить создание", "cancel_certificate"),
	))
	e.send(ctx, chatID, sess.Summary(), &telegram.SendOptions{ParseMode: telegram.Markdown, ReplyMarkup: keyboard})
}

func (e *Engine) handleRejectReason(ctx context.Context, chatID, actorID, adminID int64, text string) {
	cert, reason, err := e.moderation.SubmitReason(ctx, actorID, adminID, text)
	if err != nil {
		if errors.Is(err, faults.ErrValidation) || errors.Is(err, moderation.ErrAlreadyProcessed) {
			e.reply(ctx, chatID, faults.UserMessage(err))
			return
		}
		e.logger.ErrorContext(ctx, "reject commit failed", "error", err)
		e.reply(ctx, chatID, faults.UserMessage(err))
		return
	}
	e.reply(ctx, chatID, "✅ Сертификат отклонен. Оператор уведомлен о причине.")
	e.notifier.CertificateRejected(ctx, cert, reason)
}

func (e *Engine) reply(ctx context.Context, chatID int64, text string) {
	e.send(ctx, chatID, text, nil)
}

func (e *Engine) replyMarkdown(ctx context.Context, chatID int64, text string) {
	e.send(ctx, chatID, text, &telegram.SendOptions{ParseMode: telegram.Markdown})
}

func (e *Engine) send(ctx context.Context, chatID int64, text string, opts *telegram.SendOptions) {
	if _, err := e.messenger.SendMessage(ctx, chatID, text, opts); err != nil {
		e.logger.WarnContext(ctx, "send failed", "error", err, "chat_id", chatID)
	}
}
