package handler

import (
	"context"
	"log"

	"github.com/civicreport/api/internal/mailer"
	"github.com/civicreport/api/internal/middleware"
	"github.com/civicreport/api/internal/model"
	"github.com/civicreport/api/internal/notification"
)

// Notifier delivers domain events to user feeds and department inboxes.
// Delivery failures are logged; they never fail the request that caused
// them.
type Notifier struct {
	registry *notification.Registry
	mailer   *mailer.Mailer
}

func NewNotifier(registry *notification.Registry, m *mailer.Mailer) *Notifier {
	return &Notifier{registry: registry, mailer: m}
}

func (n *Notifier) Notify(ctx context.Context, email string, t notification.Type, p notification.Payload) {
	if n == nil || n.registry == nil || email == "" {
		return
	}
	if _, err := n.registry.Notify(ctx, email, t, p); err != nil {
		log.Printf("Warning: failed to store %s notification for %s: %v", t, email, err)
		return
	}
	middleware.RecordNotification(string(t))
}

// MailDepartment sends the new-report notice in the background.
func (n *Notifier) MailDepartment(dept *model.Department, r model.Report) {
	if n == nil || dept == nil || !n.mailer.Enabled() {
		return
	}
	go func() {
		if err := n.mailer.NotifyDepartment(dept, &r); err != nil {
			log.Printf("[Mailer] Failed to notify %s about report #%d: %v", dept.Name, r.ID, err)
		}
	}()
}
