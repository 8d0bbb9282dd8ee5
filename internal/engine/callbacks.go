package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"vcert/internal/faults"
	"vcert/internal/logging"
	"vcert/internal/moderation"
	"vcert/internal/roles"
	"vcert/internal/store"
	"vcert/internal/telegram"
)

func (e *Engine) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	from := cb.From
	ctx = faults.WithActorID(ctx, from.ID)

	chatID := from.ID
	if cb.Message != nil {
		chatID = cb.Message.Chat.ID
	}

	if err := e.messenger.AnswerCallbackQuery(ctx, cb.ID, ""); err != nil {
		e.logger.WarnContext(ctx, "answer callback failed", "error", err)
	}

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

	action, arg, _ := strings.Cut(cb.Data, ":")
	ctx = faults.WithHandler(ctx, action)

	switch action {
	case "submit_certificate":
		e.cbSubmitCertificate(ctx, chatID, user, role)
	case "cancel_certificate":
		e.cbCancelCertificate(ctx, chatID, user)
	case "approve":
		e.cbApprove(ctx, chatID, cb, user, role, arg)
	case "reject":
		e.cbStartReject(ctx, chatID, cb, user, role, arg)
	case "add_operator":
		e.cbSetOperatorRole(ctx, chatID, role, arg, store.RoleOperator)
	case "remove_operator":
		e.cbSetOperatorRole(ctx, chatID, role, arg, store.RoleUser)
	case "block_user":
		e.cbSetBlocked(ctx, chatID, role, arg, true)
	case "unblock_user":
		e.cbSetBlocked(ctx, chatID, role, arg, false)
	default:
		e.logger.DebugContext(ctx, "unknown callback", "action", action)
	}
}

func (e *Engine) cbSubmitCertificate(ctx context.Context, chatID int64, user *store.User, role store.Role) {
	if !roles.Allows(role, store.RoleOperator) {
		e.reply(ctx, chatID, noOperatorRights)
		return
	}
	sess, ok := e.captures.Get(user.TelegramID)
	if !ok {
		e.reply(ctx, chatID, "❌ Сессия создания сертификата истекла или не найдена")
		return
	}
	if !sess.Complete() {
		e.reply(ctx, chatID, sess.Prompt())
		return
	}

	cert, err := e.store.CreateCertificate(ctx, store.NewCertificate{
		OperatorID:   user.ID,
		CarBrand:     sess.Draft.CarBrand,
		CarModel:     sess.Draft.CarModel,
		LicensePlate: sess.Draft.LicensePlate,
		VIN:          sess.Draft.VIN,
		RollNumber:   sess.Draft.RollNumber,
		RollPhoto:    sess.Draft.RollPhoto,
		CarPhoto:     sess.Draft.CarPhoto,
	})
	if err != nil {
		// A uniqueness conflict keeps the session open so the operator
		// can cancel or retry after the duplicate is sorted out.
		if errors.Is(err, store.ErrPlateExists) || errors.Is(err, store.ErrVINExists) {
			e.reply(ctx, chatID, faults.UserMessage(err))
			return
		}
		e.logger.ErrorContext(ctx, "certificate creation failed", "error", err)
		e.reply(ctx, chatID, "⚠️ Произошла ошибка при создании сертификата. Попробуйте позже.")
		return
	}

	e.captures.Delete(user.TelegramID)
	e.replyMarkdown(ctx, chatID, "✅ *Сертификат успешно создан и отправлен на подтверждение администратору!*\n\n"+
		"Вы получите уведомление, когда администратор проверит ваш сертификат.")
	e.notifier.SubmissionFanout(ctx, user, cert)
}

func (e *Engine) cbCancelCertificate(ctx context.Context, chatID int64, user *store.User) {
	e.captures.Delete(user.TelegramID)
	e.reply(ctx, chatID, "❌ Создание сертификата отменено")
}

func (e *Engine) cbApprove(ctx context.Context, chatID int64, cb *telegram.CallbackQuery, user *store.User, role store.Role, arg string) {
	if role != store.RoleAdmin {
		e.reply(ctx, chatID, noAdminRights)
		return
	}
	certID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		e.reply(ctx, chatID, "❌ Неверный ID сертификата")
		return
	}

	cert, err := e.moderation.Approve(ctx, certID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, moderation.ErrAlreadyProcessed):
			e.reply(ctx, chatID, faults.UserMessage(err))
		case errors.Is(err, faults.ErrNotFound):
			e.reply(ctx, chatID, "❌ Сертификат не найден")
		default:
			e.logger.ErrorContext(ctx, "approve failed", "error", err, logging.Certificate(certID))
			e.reply(ctx, chatID, "⚠️ Произошла ошибка при подтверждении сертификата")
		}
		return
	}

	e.reply(ctx, chatID, "✅ Сертификат успешно подтвержден и отправлен оператору")
	e.notifier.CertificateApproved(ctx, cert)
	e.removeKeyboardMessage(ctx, cb)
}

func (e *Engine) cbStartReject(ctx context.Context, chatID int64, cb *telegram.CallbackQuery, user *store.User, role store.Role, arg string) {
	if role != store.RoleAdmin {
		e.reply(ctx, chatID, noAdminRights)
		return
	}
	certID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		e.reply(ctx, chatID, "❌ Неверный ID сертификата")
		return
	}

	cert, err := e.store.CertificateByID(ctx, certID)
	if err != nil {
		e.reply(ctx, chatID, "❌ Сертификат не найден")
		return
	}
	if cert.Status != store.StatusPending {
		e.reply(ctx, chatID, faults.UserMessage(moderation.ErrAlreadyProcessed))
		return
	}

	e.moderation.StartReject(user.TelegramID, certID)
	e.reply(ctx, chatID, "📝 Укажите причину отказа (отправьте текстовое сообщение):")
	e.removeKeyboardMessage(ctx, cb)
}

func (e *Engine) cbSetOperatorRole(ctx context.Context, chatID int64, role store.Role, arg string, target store.Role) {
	if role != store.RoleAdmin {
		e.reply(ctx, chatID, noAdminRights)
		return
	}
	telegramID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		e.reply(ctx, chatID, "❌ Неверный ID пользователя")
		return
	}
	subject, err := e.store.UserByTelegramID(ctx, telegramID)
	if err != nil {
		e.reply(ctx, chatID, "❌ Пользователь не найден")
		return
	}
	if subject.Role == target {
		e.reply(ctx, chatID, fmt.Sprintf("ℹ️ Пользователь уже имеет роль %s", target))
		return
	}
	if err := e.store.SetRole(ctx, telegramID, target); err != nil {
		e.logger.ErrorContext(ctx, "role change failed", "error", err, slog.Int64("subject_id", telegramID))
		e.reply(ctx, chatID, "⚠️ Произошла ошибка при изменении роли пользователя")
		return
	}

	actionText := "понижен до пользователя"
	if target == store.RoleOperator {
		actionText = "назначен оператором"
	}
	e.reply(ctx, chatID, fmt.Sprintf("✅ Пользователь %s %s", subject.DisplayName(), actionText))
	e.notifier.RoleChanged(ctx, subject, target)
}

func (e *Engine) cbSetBlocked(ctx context.Context, chatID int64, role store.Role, arg string, blocked bool) {
	if role != store.RoleAdmin {
		e.reply(ctx, chatID, noAdminRights)
		return
	}
	telegramID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		e.reply(ctx, chatID, "❌ Неверный ID пользователя")
		return
	}
	subject, err := e.store.UserByTelegramID(ctx, telegramID)
	if err != nil {
		e.reply(ctx, chatID, "❌ Пользователь не найден")
		return
	}
	if subject.IsBlocked == blocked {
		state := "разблокирован"
		if blocked {
			state = "заблокирован"
		}
		e.reply(ctx, chatID, fmt.Sprintf("ℹ️ Пользователь уже %s", state))
		return
	}
	if err := e.store.SetBlocked(ctx, telegramID, blocked); err != nil {
		e.logger.ErrorContext(ctx, "block change failed", "error", err, slog.Int64("subject_id", telegramID))
		e.reply(ctx, chatID, "⚠️ Произошла ошибка при изменении статуса пользователя")
		return
	}

	actionText := "разблокирован"
	if blocked {
		actionText = "заблокирован"
	}
	e.reply(ctx, chatID, fmt.Sprintf("✅ Пользователь %s %s", subject.DisplayName(), actionText))
	if blocked {
		e.notifier.Blocked(ctx, subject)
	}
}

func (e *Engine) removeKeyboardMessage(ctx context.Context, cb *telegram.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	if err := e.messenger.DeleteMessage(ctx, cb.Message.Chat.ID, cb.Message.MessageID); err != nil {
		e.logger.DebugContext(ctx, "delete keyboard message failed", "error", err)
	}
}
