// Package notification delivers Email/SMS reminders for antenatal visits,
// referrals, and appointments, with template rendering, retry, and a
// per-recipient send throttle.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Type represents the channel used to deliver a notification.
type Type string

const (
	TypeEmail Type = "email"
	TypeSMS   Type = "sms"
)

// Notification represents a single outbound notification.
type Notification struct {
	ID           string            `json:"id"`
	Type         Type              `json:"type"`
	Recipient    string            `json:"recipient"`
	Subject      string            `json:"subject,omitempty"`
	Body         string            `json:"body"`
	TemplateID   string            `json:"template_id,omitempty"`
	TemplateData map[string]string `json:"template_data,omitempty"`
	Status       string            `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender is the interface for sending SMS messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Template defines a reusable notification template.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Type    Type   `json:"type"`
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      "visit-reminder",
			Name:    "Antenatal Visit Reminder",
			Subject: "Antenatal Visit Reminder for {{patient_name}}",
			Body:    "Dear {{patient_name}}, your week {{week}} antenatal visit ({{purpose}}) is scheduled for {{date}} at {{hospital}}.",
			Type:    TypeEmail,
		},
		{
			ID:      "registration-complete",
			Name:    "Antenatal Registration Complete",
			Subject: "Antenatal Registration Confirmed",
			Body:    "Dear {{patient_name}}, your antenatal registration at {{hospital}} is complete. Your estimated due date is {{edd}}. Your first scheduled visit is on {{first_visit}}.",
			Type:    TypeEmail,
		},
		{
			ID:      "referral-received",
			Name:    "Referral Received",
			Subject: "New Patient Referral from {{from_hospital}}",
			Body:    "A referral for patient {{patient_name}} has been received from {{from_hospital}}. Reason: {{reason}}. Urgency: {{urgency}}.",
			Type:    TypeEmail,
		},
		{
			ID:      "referral-accepted",
			Name:    "Referral Accepted",
			Subject: "Referral Accepted by {{to_hospital}}",
			Body:    "Your referral of patient {{patient_name}} has been accepted by {{to_hospital}}.",
			Type:    TypeEmail,
		},
		{
			ID:      "appointment-reminder",
			Name:    "Appointment Reminder",
			Subject: "Appointment Reminder for {{patient_name}}",
			Body:    "Dear {{patient_name}}, this is a reminder of your appointment on {{date}} at {{time}} with {{provider}}.",
			Type:    TypeEmail,
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are left
// as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// EmailCall records a single call to SendEmail.
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender is a test double for EmailSender.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
	FailError  string
}

// SendEmail records the call and optionally returns an error.
func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded email calls.
func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// SMSCall records a single call to SendSMS.
type SMSCall struct {
	To   string
	Body string
}

// MockSMSSender is a test double for SMSSender.
type MockSMSSender struct {
	mu         sync.Mutex
	calls      []SMSCall
	ShouldFail bool
	FailError  string
}

// SendSMS records the call and optionally returns an error.
func (m *MockSMSSender) SendSMS(_ context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, SMSCall{To: to, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded SMS calls.
func (m *MockSMSSender) Calls() []SMSCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SMSCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// ErrThrottled is returned when a recipient has exceeded the send rate.
var ErrThrottled = errors.New("notification rate exceeded for recipient")

// Manager orchestrates sending, storage, and retrieval of notifications.
// Sends are throttled per recipient so a scheduling bug cannot flood a
// patient's inbox.
type Manager struct {
	emailSender   EmailSender
	smsSender     SMSSender
	templates     *TemplateEngine
	limitRate     rate.Limit
	limitBurst    int
	mu            sync.RWMutex
	notifications map[string]*Notification
	limiters      map[string]*rate.Limiter
}

// NewManager constructs a Manager. rps and burst control the per-recipient
// throttle; rps <= 0 disables throttling.
func NewManager(email EmailSender, sms SMSSender, tpl *TemplateEngine, rps float64, burst int) *Manager {
	return &Manager{
		emailSender:   email,
		smsSender:     sms,
		templates:     tpl,
		limitRate:     rate.Limit(rps),
		limitBurst:    burst,
		notifications: make(map[string]*Notification),
		limiters:      make(map[string]*rate.Limiter),
	}
}

func (m *Manager) allow(recipient string) bool {
	if m.limitRate <= 0 {
		return true
	}
	m.mu.Lock()
	lim, ok := m.limiters[recipient]
	if !ok {
		lim = rate.NewLimiter(m.limitRate, m.limitBurst)
		m.limiters[recipient] = lim
	}
	m.mu.Unlock()
	return lim.Allow()
}

// Send dispatches a notification through the appropriate channel, assigns an ID
// and timestamps, and persists the result in-memory.
func (m *Manager) Send(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = time.Now().UTC()
	n.Status = "pending"

	if !m.allow(n.Recipient) {
		n.Status = "failed"
		n.Error = ErrThrottled.Error()
		m.store(n)
		return ErrThrottled
	}

	sendErr := m.dispatch(ctx, n)
	if sendErr != nil {
		n.Status = "failed"
		n.Error = sendErr.Error()
	} else {
		n.Status = "sent"
		sentAt := time.Now().UTC()
		n.SentAt = &sentAt
	}

	m.store(n)
	return sendErr
}

func (m *Manager) dispatch(ctx context.Context, n *Notification) error {
	switch n.Type {
	case TypeEmail:
		return m.emailSender.SendEmail(ctx, n.Recipient, n.Subject, n.Body)
	case TypeSMS:
		return m.smsSender.SendSMS(ctx, n.Recipient, n.Body)
	default:
		return fmt.Errorf("unsupported notification type: %s", n.Type)
	}
}

func (m *Manager) store(n *Notification) {
	m.mu.Lock()
	m.notifications[n.ID] = n
	m.mu.Unlock()
}

// SendFromTemplate renders a template and sends the resulting notification.
func (m *Manager) SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*Notification, error) {
	subject, body, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	m.templates.mu.RLock()
	tpl := m.templates.templates[templateID]
	nType := tpl.Type
	m.templates.mu.RUnlock()

	n := &Notification{
		Type:         nType,
		Recipient:    recipient,
		Subject:      subject,
		Body:         body,
		TemplateID:   templateID,
		TemplateData: data,
	}

	if err := m.Send(ctx, n); err != nil {
		return n, err
	}
	return n, nil
}

// Get retrieves a notification by ID.
func (m *Manager) Get(_ context.Context, id string) (*Notification, error) {
	m.mu.RLock()
	n, ok := m.notifications[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("notification %q not found", id)
	}
	return n, nil
}

// ListByRecipient returns notifications for a given recipient, up to limit.
func (m *Manager) ListByRecipient(_ context.Context, recipient string, limit int) ([]*Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Notification
	for _, n := range m.notifications {
		if n.Recipient == recipient {
			result = append(result, n)
			if len(result) >= limit {
				break
			}
		}
	}
	return result, nil
}

// Retry re-sends a failed notification. Returns an error if the notification is
// not in "failed" status.
func (m *Manager) Retry(ctx context.Context, id string) error {
	m.mu.RLock()
	n, ok := m.notifications[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("notification %q not found", id)
	}
	if n.Status != "failed" {
		return fmt.Errorf("notification %q is not in failed status (current: %s)", id, n.Status)
	}

	sendErr := m.dispatch(ctx, n)

	m.mu.Lock()
	if sendErr != nil {
		n.Status = "failed"
		n.Error = sendErr.Error()
	} else {
		n.Status = "sent"
		sentAt := time.Now().UTC()
		n.SentAt = &sentAt
		n.Error = ""
	}
	m.mu.Unlock()

	return sendErr
}

// Stats returns counts of notifications grouped by status.
func (m *Manager) Stats(_ context.Context) map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]int)
	for _, n := range m.notifications {
		stats[n.Status]++
	}
	return stats
}
