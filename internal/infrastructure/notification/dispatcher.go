// Package notification delivers templated billing email over SMTP and
// persists in-app alerts. Templates are markdown; each message goes out as
// multipart plain text plus rendered HTML.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"gopkg.in/gomail.v2"
	"gorm.io/gorm"

	"github.com/lumahq/luma/internal/infrastructure/persistence/models"
	"github.com/lumahq/luma/internal/shared/config"
	"github.com/lumahq/luma/internal/shared/db"
	"github.com/lumahq/luma/internal/shared/id"
	"github.com/lumahq/luma/internal/shared/logger"
	"github.com/lumahq/luma/internal/shared/services/markdown"
)

type Dispatcher struct {
	dialer   *gomail.Dialer
	cfg      *config.EmailConfig
	renderer markdown.Renderer
	db       *gorm.DB
	logger   logger.Interface
}

func NewDispatcher(cfg *config.EmailConfig, gormDB *gorm.DB, log logger.Interface) *Dispatcher {
	return &Dispatcher{
		dialer:   gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		cfg:      cfg,
		renderer: markdown.NewRenderer(),
		db:       gormDB,
		logger:   log,
	}
}

// SendTemplatedEmail renders the named template with the given data and sends
// it. Every message gets a billing portal link and support contact injected
// so failure mail is always actionable.
func (d *Dispatcher) SendTemplatedEmail(ctx context.Context, recipient, templateKey string, data map[string]any) error {
	tmpl, ok := emailTemplates[templateKey]
	if !ok {
		return fmt.Errorf("unknown email template: %s", templateKey)
	}

	merged := make(map[string]any, len(data)+2)
	for k, v := range data {
		merged[k] = v
	}
	merged["billing_portal_url"] = d.cfg.BaseURL + "/billing"
	merged["support_email"] = d.cfg.FromAddress

	subject, err := renderTemplate(templateKey+".subject", tmpl.Subject, merged)
	if err != nil {
		return err
	}
	body, err := renderTemplate(templateKey+".body", tmpl.Body, merged)
	if err != nil {
		return err
	}

	htmlBody, err := d.renderer.ToHTMLSanitized(body)
	if err != nil {
		return fmt.Errorf("failed to render email body: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(d.cfg.FromAddress, d.cfg.FromName))
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	m.AddAlternative("text/html", htmlBody)

	if err := d.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	d.logger.Infow("email sent", "template", templateKey, "recipient", recipient)
	return nil
}

// SendInAppNotification persists a dashboard notification row.
func (d *Dispatcher) SendInAppNotification(ctx context.Context, workspaceID uint, kind string, data map[string]any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal notification data: %w", err)
	}

	model := &models.NotificationModel{
		NID:         id.MustGenerateWithPrefix(id.PrefixNotification, id.DefaultLength),
		WorkspaceID: workspaceID,
		Kind:        kind,
		Data:        payload,
	}

	tx := db.GetTxFromContext(ctx, d.db)
	if err := tx.Create(model).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func renderTemplate(name, src string, data map[string]any) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=zero").Parse(src)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.String(), nil
}
