package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"resume-ranker/internal/jobs"
	"resume-ranker/internal/shared/telemetry"
)

const maxWaitSeconds = 20

// ErrQueueURLRequired is returned when no queue URL is configured.
var ErrQueueURLRequired = errors.New("sqs queue url is required")

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSClient publishes job notices and long-polls for them. It satisfies
// jobs.Notifier on the enqueue side and jobs.Waiter on the worker side.
type SQSClient struct {
	api      sqsAPI
	queueURL string
	now      func() time.Time
}

// NewSQSClient constructs an SQS-backed client from the default AWS
// credential chain.
func NewSQSClient(ctx context.Context, region, queueURL string) (*SQSClient, error) {
	queueURL = strings.TrimSpace(queueURL)
	if queueURL == "" {
		return nil, ErrQueueURLRequired
	}
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newSQSClient(sqs.NewFromConfig(cfg), queueURL), nil
}

func newSQSClient(api sqsAPI, queueURL string) *SQSClient {
	return &SQSClient{
		api:      api,
		queueURL: queueURL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Send delivers a message to the configured queue.
func (s *SQSClient) Send(ctx context.Context, msg Message) error {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode sqs message: %w", err)
	}
	_, err = s.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(payload)),
	})
	if err != nil {
		return fmt.Errorf("sqs send message: %w", err)
	}
	return nil
}

// Notify publishes a notice for a freshly enqueued job.
func (s *SQSClient) Notify(ctx context.Context, job jobs.Job) error {
	return s.Send(ctx, Message{
		JobID:      job.ID,
		JobType:    job.Type,
		DedupeKey:  job.DedupeKey,
		EnqueuedAt: s.now().Format(time.RFC3339),
		Version:    MessageVersion,
	})
}

// Wait long-polls the queue for up to d (capped at 20s) and returns as
// soon as any notice arrives. Received notices are deleted: they are hints,
// and the next claim reads the jobs table anyway.
func (s *SQSClient) Wait(ctx context.Context, d time.Duration) error {
	resp, err := s.api.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(s.queueURL),
		MaxNumberOfMessages: 10,
		WaitTimeSeconds:     waitSeconds(d),
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("sqs receive message: %w", err)
	}

	for _, m := range resp.Messages {
		body := aws.ToString(m.Body)
		if msg, meta, err := ParseMessage(body); err != nil {
			telemetry.Warn("queue.notice.invalid", map[string]any{
				"sqs_message_id": aws.ToString(m.MessageId),
				"body_len":       meta.BodyLen,
				"body_sha256":    meta.BodySHA,
				"error":          err.Error(),
			})
		} else {
			telemetry.Debug("queue.notice.received", map[string]any{
				"sqs_message_id": aws.ToString(m.MessageId),
				"job_id":         msg.JobID,
			})
		}
		if receipt := aws.ToString(m.ReceiptHandle); receipt != "" {
			if _, err := s.api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(s.queueURL),
				ReceiptHandle: aws.String(receipt),
			}); err != nil {
				telemetry.Warn("queue.notice.delete_failed", map[string]any{
					"sqs_message_id": aws.ToString(m.MessageId),
					"error":          err.Error(),
				})
			}
		}
	}
	return nil
}

func waitSeconds(d time.Duration) int32 {
	secs := int32((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	if secs > maxWaitSeconds {
		return maxWaitSeconds
	}
	return secs
}

var (
	_ jobs.Notifier = (*SQSClient)(nil)
	_ jobs.Waiter   = (*SQSClient)(nil)
)
