package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/lyceum-sms/lyceum-sms/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// MailJob delivers transactional email through the configured SMTP relay.
type MailJob struct {
	Host   string
	Port   int
	From   string
	Logger *slog.Logger
}

// NewMailJob initialises the mail handler.
func NewMailJob(host string, port int, from string, logger *slog.Logger) *MailJob {
	return &MailJob{Host: host, Port: port, From: from, Logger: logger}
}

// Handle processes TaskTypeSendEmail tasks.
func (j *MailJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("mail: handler not configured")
	}
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := defaultJobMetrics.Track(TaskTypeSendEmail)
	msg := []byte("From: " + j.From + "\r\n" +
		"To: " + payload.To + "\r\n" +
		"Subject: " + payload.Subject + "\r\n" +
		"\r\n" + payload.Body + "\r\n")
	addr := fmt.Sprintf("%s:%d", j.Host, j.Port)
	err := smtp.SendMail(addr, nil, j.From, []string{payload.To}, msg)
	if err != nil {
		j.logger().Error("send email", slog.String("to", payload.To), slog.Any("error", err))
		return tracker.End(err)
	}
	j.logger().Info("sent email", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return tracker.End(nil)
}

func (j *MailJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeSendEmail))
	}
	return slog.Default().With(slog.String("job", TaskTypeSendEmail))
}
