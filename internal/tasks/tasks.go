package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"agriconnect/backend/internal/config"
	"agriconnect/backend/internal/email"
	"agriconnect/backend/internal/services"
)

// TaskType defines the type of a background task.
const (
	TypeEmailDelivery = "email:deliver"
	TypeRequestExpire = "request:expire"
)

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// EmailTaskPayload carries one notification email to deliver.
type EmailTaskPayload struct {
	To      string            `json:"to"`
	Kind    string            `json:"kind"` // One of the email.Notif* constants
	Subject string            `json:"subject"`
	Data    map[string]string `json:"data,omitempty"`
}

// NewEmailDeliveryTask builds an email delivery task for enqueueing.
func NewEmailDeliveryTask(payload EmailTaskPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal email task payload: %w", err)
	}
	return asynq.NewTask(TypeEmailDelivery, data), nil
}

// NewExpireSweepTask builds the recurring expiry sweep task.
func NewExpireSweepTask() *asynq.Task {
	return asynq.NewTask(TypeRequestExpire, nil)
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg            *config.Config
	emailSender    email.Sender
	requestService services.IContactRequestService
	taskClient     *asynq.Client
}

func NewTaskProcessor(
	cfg *config.Config,
	emailSender email.Sender,
	requestService services.IContactRequestService,
	taskClient *asynq.Client,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:            cfg,
		emailSender:    emailSender,
		requestService: requestService,
		taskClient:     taskClient,
	}
}

// SetupServer configures an Asynq server and its handler mux. Returns nils
// in API mode; the caller runs the server.
func SetupServer(rdb *redis.Client, processor *TaskProcessor, isBgWorker bool) (*asynq.Server, *asynq.ServeMux) {
	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				fmt.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v\n", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	if !isBgWorker {
		fmt.Println("Running in API mode, no task server started.")
		return nil, nil
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEmailDelivery, processor.HandleEmailDeliveryTask)
	mux.HandleFunc(TypeRequestExpire, processor.HandleRequestExpireTask)
	fmt.Println("Registered background task handlers (email delivery, expiry sweep).")

	return srv, mux
}

// EnqueueExpireSweep schedules the first sweep run. Call once at worker
// startup; the handler keeps the cycle alive from then on.
func EnqueueExpireSweep(client *asynq.Client, delay time.Duration) error {
	taskInfo, err := client.Enqueue(NewExpireSweepTask(), asynq.ProcessIn(delay))
	if err != nil {
		return fmt.Errorf("failed to enqueue expiry sweep: %w", err)
	}
	log.Printf("Expiry sweep task %s scheduled to run in %v.", taskInfo.ID, delay)
	return nil
}

// --- Task Handlers ---

// HandleRequestExpireTask runs the stale-request sweep and re-enqueues itself.
// The sweep is idempotent so an extra run after a crash or a manual admin
// trigger is harmless.
func (p *TaskProcessor) HandleRequestExpireTask(ctx context.Context, t *asynq.Task) error {
	count, err := p.requestService.ExpireOldRequests(ctx)
	if err != nil {
		log.Printf("Expiry sweep failed: %v. Will retry.", err)
		return err
	}
	log.Printf("Expiry sweep finished. Expired %d requests.", count)

	taskInfo, err := p.taskClient.EnqueueContext(ctx, NewExpireSweepTask(), asynq.ProcessIn(p.cfg.RequestSweepInterval))
	if err != nil {
		log.Printf("ERROR failed to re-enqueue expiry sweep task: %v", err)
		return err
	}
	log.Printf("Re-enqueued expiry sweep task %s to run in %v.", taskInfo.ID, p.cfg.RequestSweepInterval)
	return nil
}

// HandleEmailDeliveryTask processes email delivery tasks.
func (p *TaskProcessor) HandleEmailDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var payload EmailTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal email task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.To == "" {
		return fmt.Errorf("email task has no recipient: %w", asynq.SkipRetry)
	}

	subject, body := p.renderNotification(payload)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("To: %s\r\n", payload.To))
	sb.WriteString(fmt.Sprintf("From: %s\r\n", p.cfg.SmtpFromAddress))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	sb.WriteString("\r\n")

	if err := p.emailSender.Send(ctx, []string{payload.To}, subject, []byte(sb.String())); err != nil {
		fmt.Printf("Email sending failed (will retry): %v\n", err)
		return err
	}

	fmt.Printf("Email task processed successfully: To=%s, Kind=%s\n", payload.To, payload.Kind)
	return nil
}

// renderNotification builds the subject and body for a lifecycle
// notification. Bodies are plain text; any data map entries are appended as
// context lines.
func (p *TaskProcessor) renderNotification(payload EmailTaskPayload) (string, string) {
	subject := payload.Subject
	var body string

	switch payload.Kind {
	case email.NotifRequestReceived:
		if subject == "" {
			subject = fmt.Sprintf("New contact request on %s", p.cfg.AppName)
		}
		body = "You have received a new contact request for one of your products.\nLog in to accept or decline it."
	case email.NotifRequestAccepted:
		if subject == "" {
			subject = fmt.Sprintf("Your contact request was accepted on %s", p.cfg.AppName)
		}
		body = "The farmer accepted your contact request.\nOnce the transaction is done, please confirm the final quantity and price."
	case email.NotifRequestRejected:
		if subject == "" {
			subject = fmt.Sprintf("Your contact request was declined on %s", p.cfg.AppName)
		}
		body = "The farmer declined your contact request."
	case email.NotifDisputeResolved:
		if subject == "" {
			subject = fmt.Sprintf("Your dispute was resolved on %s", p.cfg.AppName)
		}
		body = "An administrator has resolved the dispute on your contact request."
	default:
		if subject == "" {
			subject = fmt.Sprintf("Notification from %s", p.cfg.AppName)
		}
		body = "You have a new notification."
	}

	for key, val := range payload.Data {
		body += fmt.Sprintf("\n%s: %s", key, val)
	}
	return subject, body
}
