package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"vcert/internal/capture"
	"vcert/internal/faults"
	"vcert/internal/logging"
	"vcert/internal/roles"
	"vcert/internal/store"
	"vcert/internal/telegram"
)

const (
	noAdminRights    = "🚫 У вас нет прав администратора"
	noOperatorRights = "🚫 У вас нет прав для создания сертификатов"
)

func (e *Engine) handleCommand(ctx context.Context, chatID int64, user *store.User, role store.Role, text string) {
	fields := strings.Fields(text)
	command := strings.ToLower(fields[0])
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}
	args := fields[1:]
	ctx = faults.WithHandler(ctx, command)

	switch command {
	case "/start":
		e.cmdStart(ctx, chatID, user, role)
	case "/help":
		e.cmdHelp(ctx, chatID, role)
	case "/check":
		e.cmdCheck(ctx, chatID, args)
	case "/create":
		e.cmdCreate(ctx, chatID, user, role)
	case "/admin":
		e.cmdAdmin(ctx, chatID, role)
	case "/users":
		e.cmdUsers(ctx, chatID, role)
	case "/operators":
		e.cmdOperators(ctx, chatID, role)
	case "/pending":
		e.cmdPending(ctx, chatID, role)
	case "/stats":
		e.cmdStats(ctx, chatID, role)
	default:
		e.logger.DebugContext(ctx, "unknown command", "command", command)
	}
}

func (e *Engine) cmdStart(ctx context.Context, chatID int64, user *store.User, role store.Role) {
	switch role {
	case store.RoleAdmin:
		e.replyMarkdown(ctx, chatID, fmt.Sprintf("👮‍♂️ *Добро пожаловать, Администратор %s!*", user.FirstName))
		e.cmdAdmin(ctx, chatID, role)
	case store.RoleOperator:
		e.replyMarkdown(ctx, chatID, fmt.Sprintf("👨‍💻 *Добро пожаловать, Оператор %s!*\nИспользуйте /create для создания сертификатов", user.FirstName))
	default:
		e.replyMarkdown(ctx, chatID, fmt.Sprintf("👋 *Добро пожаловать, %s!*\n\n"+
			"Вы можете проверить сертификаты транспортных средств.\n\n"+
			"📌 *Пример использования:*\n"+
			"/check ABC123 - проверка по госномеру\n"+
			"/check 1HGCM82633A123456 - проверка по VIN-номеру\n\n"+
			"ℹ️ Для помощи используйте /help", user.FirstName))
	}
}

func (e *Engine) cmdHelp(ctx context.Context, chatID int64, role store.Role) {
	var b strings.Builder
	b.WriteString("ℹ️ *Помощь по боту*\n\n")
	b.WriteString("Основные команды:\n/start - Начать работу\n/check - Проверить сертификат\n/help - Эта справка\n")
	if roles.Allows(role, store.RoleOperator) {
		b.WriteString("\nДля операторов:\n/create - Создать сертификат\n")
	}
	if role == store.RoleAdmin {
		b.WriteString("\nДля администраторов:\n" +
			"/admin - Панель управления\n" +
			"/users - Список пользователей\n" +
			"/operators - Список операторов\n" +
			"/pending - Неподтвержденные сертификаты\n" +
			"/stats - Статистика\n")
	}
	e.replyMarkdown(ctx, chatID, b.String())
}

func (e *Engine) cmdCheck(ctx context.Context, chatID int64, args []string) {
	if len(args) == 0 {
		e.reply(ctx, chatID, "ℹ️ Введите номер сертификата или госномер:\n/check ABC123")
		return
	}
	query := strings.ToUpper(args[0])
	cert, err := e.store.FindApprovedByQuery(ctx, query)
	if err != nil {
		if errors.Is(err, faults.ErrNotFound) {
			e.replyMarkdown(ctx, chatID, fmt.Sprintf("❌ *Сертификат не найден!*\nПо запросу: %s\n\n"+
				"Проверьте правильность введенных данных и попробуйте снова.", query))
			return
		}
		e.logger.ErrorContext(ctx, "certificate lookup failed", "error", err)
		e.reply(ctx, chatID, faults.UserMessage(err))
		return
	}

	decided := "Не указана"
	if cert.DecidedAt != nil {
		decided = cert.DecidedAt.Format("02.01.2006 15:04")
	}
	e.replyMarkdown(ctx, chatID, fmt.Sprintf("✅ *Сертификат найден!*\n\n"+
		"🚗 *Марка/модель:* %s %s\n"+
		"🔢 *Госномер:* %s\n"+
		"🆔 *VIN:* %s\n"+
		"📅 *Дата выдачи:* %s\n"+
		"📜 *Номер рулона:* %s",
		cert.CarBrand, cert.CarModel, cert.LicensePlate, cert.VIN, decided, cert.RollNumber))

	e.sendCertificatePhotos(ctx, chatID, cert)
}

func (e *Engine) sendCertificatePhotos(ctx context.Context, chatID int64, cert *store.Certificate) {
	if cert.CarPhoto != "" {
		if err := e.messenger.SendPhoto(ctx, chatID, cert.CarPhoto, "Фото автомобиля"); err != nil {
			e.logger.WarnContext(ctx, "car photo redelivery failed", "error", err, logging.Certificate(cert.ID))
		}
	}
	if cert.RollPhoto != "" {
		if err := e.messenger.SendPhoto(ctx, chatID, cert.RollPhoto, "Фото рулона"); err != nil {
			e.logger.WarnContext(ctx, "roll photo redelivery failed", "error", err, logging.Certificate(cert.ID))
		}
	}
}

func (e *Engine) cmdCreate(ctx context.Context, chatID int64, user *store.User, role store.Role) {
	if !roles.Allows(role, store.RoleOperator) {
		e.reply(ctx, chatID, noOperatorRights)
		return
	}
	e.captures.Put(user.TelegramID, capture.New())
	e.reply(ctx, chatID, capture.StartPrompt)
}

func (e *Engine) cmdAdmin(ctx context.Context, chatID int64, role store.Role) {
	if role != store.RoleAdmin {
		e.reply(ctx, chatID, noAdminRights)
		return
	}
	e.replyMarkdown(ctx, chatID, "👮‍♂️ *Панель администратора*\n\n"+
		"Доступные команды:\n"+
		"/users - Управление пользователями\n"+
		"/operators - Управление операторами\n"+
		"/pending - Неподтвержденные сертификаты\n"+
		"/stats - Статистика системы")
}

func userStatusLine(u *store.User) string {
	if u.IsBlocked {
		return "🚫 Заблокирован"
	}
	return "✅ Активен"
}

func usernameLine(u *store.User) string {
	if u.Username == "" {
		return "нет username"
	}
	return "@" + u.Username
}

func blockButton(u *store.User) telegram.InlineKeyboardButton {
	if u.IsBlocked {
		return telegram.Button("Разблокировать", fmt.Sprintf("unblock_user:%d", u.TelegramID))
	}
	return telegram.Button("Заблокировать", fmt.Sprintf("block_user:%d", u.TelegramID))
}

func (e *Engine) cmdUsers(ctx context.Context, chatID int64, role store.Role) {
	if role != store.RoleAdmin {
		e.reply(ctx, chatID, noAdminRights)
		return
	}
	users, err := e.store.UsersByRole(ctx, store.RoleUser)
	if err != nil {
		e.logger.ErrorContext(ctx, "users list failed", "error", err)
		e.reply(ctx, chatID, faults.UserMessage(err))
		return
	}
	if len(users) == 0 {
		e.reply(ctx, chatID, "ℹ️ В системе пока нет обычных пользователей")
		return
	}

	e.replyMarkdown(ctx, chatID, fmt.Sprintf("👥 *Список пользователей (%d):*", len(users)))
	for _, u := range users {
		text := fmt.Sprintf("*%s* %s\n%s\nСтатус: %s\nЗарегистрирован: %s",
			u.FirstName, u.LastName, usernameLine(u), userStatusLine(u), u.CreatedAt.Format("02.01.2006"))
		keyboard := telegram.Keyboard(telegram.Row(
			telegram.Button("Сделать оператором", fmt.Sprintf("add_operator:%d", u.TelegramID)),
			blockButton(u),
		))
		e.send(ctx, chatID, text, &telegram.SendOptions{ParseMode: telegram.Markdown, ReplyMarkup: keyboard})
	}
}

func (e *Engine) cmdOperators(ctx context.Context, chatID int64, role store.Role) {
	if role != store.RoleAdmin {
		e.reply(ctx, chatID, noAdminRights)
		return
	}
	operators, err := e.store.UsersByRole(ctx, store.RoleOperator)
	if err != nil {
		e.logger.ErrorContext(ctx, "operators list failed", "error", err)
		e.reply(ctx, chatID, faults.UserMessage(err))
		return
	}
	if len(operators) == 0 {
		e.reply(ctx, chatID, "ℹ️ В системе пока нет операторов")
		return
	}

	e.replyMarkdown(ctx, chatID, fmt.Sprintf("👨‍💻 *Список операторов (%d):*", len(operators)))
	for _, op := range operators {
		stats, err := e.store.OperatorStats(ctx, op.ID)
		if err != nil {
			e.logger.WarnContext(ctx, "operator stats failed", "error", err, slog.Int64("operator_id", op.TelegramID))
		}
		text := fmt.Sprintf("*%s* %s\n%s\nСтатус: %s\nСертификатов: %d (%d одобрено, %d%%)\nЗарегистрирован: %s",
			op.FirstName, op.LastName, usernameLine(op), userStatusLine(op),
			stats.Total, stats.Approved, stats.ApprovalRate(), op.CreatedAt.Format("02.01.2006"))
		keyboard := telegram.Keyboard(telegram.Row(
			telegram.Button("Сделать пользователем", fmt.Sprintf("remove_operator:%d", op.TelegramID)),
			blockButton(op),
		))
		e.send(ctx, chatID, text, &telegram.SendOptions{ParseMode: telegram.Markdown, ReplyMarkup: keyboard})
	}
}

func (e *Engine) cmdPending(ctx context.Context, chatID int64, role store.Role) {
	if role != store.RoleAdmin {
		e.reply(ctx, chatID, noAdminRights)
		return
	}
	pending, err := e.moderation.Pending(ctx)
	if err != nil {
		e.logger.ErrorContext(ctx, "pending list failed", "error", err)
		e.reply(ctx, chatID, faults.UserMessage(err))
		return
	}
	if len(pending) == 0 {
		e.reply(ctx, chatID, "ℹ️ Нет сертификатов, ожидающих подтверждения")
		return
	}

	e.replyMarkdown(ctx, chatID, fmt.Sprintf("⏳ *Сертификатов на подтверждение: %d*", len(pending)))
	for _, cert := range pending {
		operatorName := "неизвестен"
		if operator, err := e.store.UserByID(ctx, cert.OperatorID); err == nil {
			operatorName = fmt.Sprintf("%s %s", operator.FirstName, usernameLine(operator))
		}
		e.replyMarkdown(ctx, chatID, fmt.Sprintf("📋 *Новый сертификат*\n\n"+
			"👤 *Оператор:* %s\n"+
			"📅 *Дата создания:* %s\n\n"+
			"🚗 *Автомобиль:* %s %s\n"+
			"🔢 *Госномер:* %s\n"+
			"🆔 *VIN:* %s\n"+
			"📜 *Номер рулона:* %s",
			operatorName, cert.CreatedAt.Format("02.01.2006 15:04"),
			cert.CarBrand, cert.CarModel, cert.LicensePlate, cert.VIN, cert.RollNumber))

		e.sendCertificatePhotos(ctx, chatID, cert)

		keyboard := telegram.Keyboard(telegram.Row(
			telegram.Button("✅ Подтвердить", fmt.Sprintf("approve:%d", cert.ID)),
			telegram.Button("❌ Отклонить", fmt.Sprintf("reject:%d", cert.ID)),
		))
		e.send(ctx, chatID, "Выберите действие:", &telegram.SendOptions{ReplyMarkup: keyboard})
	}
}

func (e *Engine) cmdStats(ctx context.Context, chatID int64, role store.Role) {
	if role != store.RoleAdmin {
		e.reply(ctx, chatID, noAdminRights)
		return
	}
	certs, err := e.store.StatusCounts(ctx)
	if err != nil {
		e.logger.ErrorContext(ctx, "status counts failed", "error", err)
		e.reply(ctx, chatID, faults.UserMessage(err))
		return
	}
	users, err := e.store.UserCounts(ctx)
	if err != nil {
		e.logger.ErrorContext(ctx, "user counts failed", "error", err)
		e.reply(ctx, chatID, faults.UserMessage(err))
		return
	}
	e.replyMarkdown(ctx, chatID, fmt.Sprintf("📊 *Статистика системы*\n\n"+
		"📋 *Сертификаты:*\n"+
		"• Всего: %d\n"+
		"• Сегодня: %d\n"+
		"• Ожидают: %d\n"+
		"• Подтверждено: %d\n"+
		"• Отклонено: %d\n\n"+
		"👤 *Пользователи:*\n"+
		"• Всего: %d\n"+
		"• Операторов: %d\n"+
		"• Заблокировано: %d",
		certs.Total, certs.CreatedToday, certs.Pending, certs.Approved, certs.Rejected,
		users.Total, users.Operators, users.Blocked))
}
