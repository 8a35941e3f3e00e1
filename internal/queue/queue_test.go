package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-ranker/internal/jobs"
)

type fakeSQS struct {
	sent     []string
	received []sqstypes.Message
	waits    []int32
	deleted  []string
	err      error
}

func (f *fakeSQS) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, aws.ToString(params.MessageBody))
	return &sqs.SendMessageOutput{}, nil
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, params *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.waits = append(f.waits, params.WaitTimeSeconds)
	if f.err != nil {
		return nil, f.err
	}
	out := &sqs.ReceiveMessageOutput{Messages: f.received}
	f.received = nil
	return out, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func TestParseMessage(t *testing.T) {
	msg, meta, err := ParseMessage(`{"jobId":"j1","jobType":"resume_embedding","version":1}`)
	require.NoError(t, err)
	assert.Equal(t, "j1", msg.JobID)
	assert.Len(t, meta.BodySHA, 64)

	_, _, err = ParseMessage("  ")
	assert.IsType(t, ErrEmptyBody{}, err)

	_, meta, err = ParseMessage("{")
	var de ErrDecode
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 1, meta.BodyLen)

	_, _, err = ParseMessage(`{"jobType":"resume_embedding"}`)
	assert.IsType(t, ErrMissingJobID{}, err)
}

func TestNotifySendsJobNotice(t *testing.T) {
	api := &fakeSQS{}
	c := newSQSClient(api, "https://sqs.local/q")
	c.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, c.Notify(context.Background(), jobs.Job{ID: "j1", Type: jobs.TypeResumeEmbedding, DedupeKey: "resume_embedding:r1"}))

	require.Len(t, api.sent, 1)
	msg, _, err := ParseMessage(api.sent[0])
	require.NoError(t, err)
	assert.Equal(t, Message{
		JobID:      "j1",
		JobType:    jobs.TypeResumeEmbedding,
		DedupeKey:  "resume_embedding:r1",
		EnqueuedAt: "2026-03-01T12:00:00Z",
		Version:    MessageVersion,
	}, msg)
}

func TestWaitDeletesNotices(t *testing.T) {
	api := &fakeSQS{received: []sqstypes.Message{
		{MessageId: aws.String("m1"), ReceiptHandle: aws.String("rh1"), Body: aws.String(`{"jobId":"j1"}`)},
		{MessageId: aws.String("m2"), ReceiptHandle: aws.String("rh2"), Body: aws.String(`garbage`)},
	}}
	c := newSQSClient(api, "q")

	require.NoError(t, c.Wait(context.Background(), 2*time.Second))
	assert.Equal(t, []int32{2}, api.waits)
	assert.Equal(t, []string{"rh1", "rh2"}, api.deleted)

	require.NoError(t, c.Wait(context.Background(), time.Minute))
	assert.Equal(t, int32(maxWaitSeconds), api.waits[1])
}

func TestWaitReportsReceiveErrors(t *testing.T) {
	api := &fakeSQS{err: errors.New("throttled")}
	c := newSQSClient(api, "q")
	assert.Error(t, c.Wait(context.Background(), time.Second))
	assert.Error(t, c.Notify(context.Background(), jobs.Job{ID: "j1"}))
}

func TestWaitSeconds(t *testing.T) {
	assert.Equal(t, int32(1), waitSeconds(0))
	assert.Equal(t, int32(2), waitSeconds(1500*time.Millisecond))
	assert.Equal(t, int32(20), waitSeconds(time.Hour))
}
