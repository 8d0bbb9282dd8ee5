// Package notify delivers workflow events to the people they concern:
// the deciding admin's counterparts on submission, the operator on
// approval and rejection, and users on role or block changes. Delivery
// failures are logged and never propagate; a decision stays committed
// even when its notification cannot be sent.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"vcert/internal/logging"
	"vcert/internal/render"
	"vcert/internal/store"
	"vcert/internal/telegram"
)

// Messenger is the outbound slice of the chat client.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts *telegram.SendOptions) (*telegram.Message, error)
	SendDocument(ctx context.Context, chatID int64, filename string, content io.Reader, caption string) error
}

// Renderer produces the approval artifact.
type Renderer interface {
	CertificatePDF(data render.CertificateData) (string, error)
	Cleanup(path string)
}

// Options toggle notification classes.
type Options struct {
	SubmissionFanout bool
	Decisions        bool
}

// Coordinator routes workflow events to chat messages.
type Coordinator struct {
	messenger Messenger
	renderer  Renderer
	store     *store.Store
	logger    *slog.Logger
	opts      Options
}

// NewCoordinator builds a Coordinator.
func NewCoordinator(messenger Messenger, renderer Renderer, st *store.Store, logger *slog.Logger, opts Options) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		messenger: messenger,
		renderer:  renderer,
		store:     st,
		logger:    logger.With(logging.Component("notify")),
		opts:      opts,
	}
}

// SubmissionFanout tells every admin about a freshly submitted
// certificate.
func (c *Coordinator) SubmissionFanout(ctx context.Context, operator *store.User, cert *store.Certificate) {
	if !c.opts.SubmissionFanout {
		return
	}
	admins, err := c.store.UsersByRole(ctx, store.RoleAdmin)
	if err != nil {
		c.logger.WarnContext(ctx, "fanout admin lookup failed", "error", err, logging.Certificate(cert.ID))
		return
	}
	text := fmt.Sprintf("📢 Новый сертификат на подтверждение от %s!\nИспользуйте команду /pending для просмотра.", operator.DisplayName())
	for _, admin := range admins {
		if admin.TelegramID == operator.TelegramID {
			continue
		}
		if _, err := c.messenger.SendMessage(ctx, admin.TelegramID, text, nil); err != nil {
			c.logger.WarnContext(ctx, "fanout delivery failed", "error", err,
				logging.Certificate(cert.ID), slog.Int64("recipient_id", admin.TelegramID))
		}
	}
}

// CertificateApproved delivers the approval PDF to the operator. When
// rendering fails the operator still gets a plain-text confirmation.
func (c *Coordinator) CertificateApproved(ctx context.Context, cert *store.Certificate) {
	if !c.opts.Decisions {
		return
	}
	operator, err := c.store.UserByID(ctx, cert.OperatorID)
	if err != nil {
		c.logger.WarnContext(ctx, "approval operator lookup failed", "error", err, logging.Certificate(cert.ID))
		return
	}

	data := render.FromRecord(cert, operator)
	pdfPath, err := c.renderer.CertificatePDF(data)
	if err != nil {
		c.logger.WarnContext(ctx, "certificate pdf generation failed", "error", err, logging.Certificate(cert.ID))
		text := "🎉 Ваш сертификат был подтвержден администратором!\n\n" +
			"⚠️ Приносим извинения, техническая проблема с генерацией PDF файла.\n\n" +
			render.FallbackText(data)
		if _, err := c.messenger.SendMessage(ctx, operator.TelegramID, text, nil); err != nil {
			c.logger.WarnContext(ctx, "approval fallback delivery failed", "error", err, logging.Certificate(cert.ID))
		}
		return
	}
	defer c.renderer.Cleanup(pdfPath)

	file, err := os.Open(pdfPath)
	if err != nil {
		c.logger.WarnContext(ctx, "open rendered pdf failed", "error", err, logging.Certificate(cert.ID))
		return
	}
	defer file.Close()

	caption := "🎉 Ваш сертификат был подтвержден администратором!"
	if err := c.messenger.SendDocument(ctx, operator.TelegramID, filepath.Base(pdfPath), file, caption); err != nil {
		c.logger.WarnContext(ctx, "approval delivery failed", "error", err, logging.Certificate(cert.ID))
	}
}

// CertificateRejected tells the operator why their submission was
// declined.
func (c *Coordinator) CertificateRejected(ctx context.Context, cert *store.Certificate, reason string) {
	if !c.opts.Decisions {
		return
	}
	operator, err := c.store.UserByID(ctx, cert.OperatorID)
	if err != nil {
		c.logger.WarnContext(ctx, "rejection operator lookup failed", "error", err, logging.Certificate(cert.ID))
		return
	}
	text := fmt.Sprintf("⚠️ Ваш сертификат (%s %s, %s) был отклонен.\n\n"+
		"*Причина:* %s\n\n"+
		"Вы можете создать новый сертификат с исправленными данными.",
		cert.CarBrand, cert.CarModel, cert.LicensePlate, reason)
	if _, err := c.messenger.SendMessage(ctx, operator.TelegramID, text, &telegram.SendOptions{ParseMode: telegram.Markdown}); err != nil {
		c.logger.WarnContext(ctx, "rejection delivery failed", "error", err, logging.Certificate(cert.ID))
	}
}

// RoleChanged tells a user their operator rights changed.
func (c *Coordinator) RoleChanged(ctx context.Context, user *store.User, role store.Role) {
	text := "ℹ️ Ваши права оператора были отозваны."
	if role == store.RoleOperator {
		text = "🎉 Вам были предоставлены права оператора! Теперь вы можете создавать сертификаты."
	}
	if _, err := c.messenger.SendMessage(ctx, user.TelegramID, text, nil); err != nil {
		c.logger.WarnContext(ctx, "role change notice failed", "error", err, slog.Int64("recipient_id", user.TelegramID))
	}
}

// Blocked tells a user their account was blocked. Unblocking is silent,
// matching the moderation workflow.
func (c *Coordinator) Blocked(ctx context.Context, user *store.User) {
	text := "🚫 Ваш аккаунт был заблокирован администратором. Для выяснения причин обратитесь к администрации."
	if _, err := c.messenger.SendMessage(ctx, user.TelegramID, text, nil); err != nil {
		c.logger.WarnContext(ctx, "block notice failed", "error", err, slog.Int64("recipient_id", user.TelegramID))
	}
}
