package events

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	log "github.com/sirupsen/logrus"
)

const (
	// maxSQSDelay is the longest DelaySeconds SQS accepts.
	maxSQSDelay = 15 * time.Minute
	// maxSQSBatch is the largest MaxNumberOfMessages SQS accepts.
	maxSQSBatch = 10
)

// NewSQSAPI creates an SQS client using the default credential chain.
func NewSQSAPI(region, endpoint string) (sqsiface.SQSAPI, error) {
	cfg := aws.NewConfig().WithRegion(region)
	if endpoint != "" {
		cfg = cfg.WithEndpoint(endpoint)
	}
	awsSession, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create AWS session: %v", err)
	}
	return sqs.New(awsSession), nil
}

// SQSPublisher publishes each topic to its own queue.
type SQSPublisher struct {
	sqsAPI sqsiface.SQSAPI
	queues map[string]string
}

var _ Publisher = (*SQSPublisher)(nil)

// NewSQSPublisher returns a publisher sending to queues, keyed by topic.
func NewSQSPublisher(sqsAPI sqsiface.SQSAPI, queues map[string]string) *SQSPublisher {
	return &SQSPublisher{sqsAPI: sqsAPI, queues: queues}
}

func (p *SQSPublisher) Publish(ctx context.Context, topic string, msg Message) error {
	queueURL := p.queues[topic]
	if queueURL == "" {
		return fmt.Errorf("no queue configured for topic %s", topic)
	}
	in := &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(string(msg.Body)),
	}
	if msg.Delay > 0 {
		delay := msg.Delay
		if delay > maxSQSDelay {
			delay = maxSQSDelay
		}
		in.DelaySeconds = aws.Int64(int64(delay / time.Second))
	}
	if _, err := p.sqsAPI.SendMessageWithContext(ctx, in); err != nil {
		return fmt.Errorf("unable to publish %s event: %v", topic, err)
	}
	return nil
}

type ConsumerConfig struct {
	QueueURL          string
	WaitTime          time.Duration
	VisibilityTimeout time.Duration
	MaxMessages       int64
	// ErrorBackoff is how long to pause after a failed receive.
	ErrorBackoff time.Duration
}

// Consumer long-polls an SQS queue and hands every message to a Handler.
// Messages are deleted when the handler succeeds or fails permanently;
// other failures are left for SQS to redeliver once the visibility timeout
// expires.
type Consumer struct {
	sqsAPI sqsiface.SQSAPI
	cfg    ConsumerConfig
	logger log.FieldLogger
}

func NewConsumer(logger log.FieldLogger, sqsAPI sqsiface.SQSAPI, cfg ConsumerConfig) *Consumer {
	if cfg.MaxMessages <= 0 || cfg.MaxMessages > maxSQSBatch {
		cfg.MaxMessages = 1
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = 5 * time.Second
	}
	return &Consumer{
		sqsAPI: sqsAPI,
		cfg:    cfg,
		logger: logger.WithField("queue", cfg.QueueURL),
	}
}

// Run receives until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	c.logger.Infof("consumer started")
	defer c.logger.Infof("consumer stopped")
	for {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := c.Poll(ctx, handler); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.WithError(err).Warnf("error receiving messages, retrying in %s", c.cfg.ErrorBackoff)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.cfg.ErrorBackoff):
			}
		}
	}
}

// Poll performs a single receive and processes what it got, returning the
// number of messages received.
func (c *Consumer) Poll(ctx context.Context, handler Handler) (int, error) {
	in := &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.cfg.QueueURL),
		MaxNumberOfMessages: aws.Int64(c.cfg.MaxMessages),
		WaitTimeSeconds:     aws.Int64(int64(c.cfg.WaitTime / time.Second)),
	}
	if c.cfg.VisibilityTimeout > 0 {
		in.VisibilityTimeout = aws.Int64(int64(c.cfg.VisibilityTimeout / time.Second))
	}
	out, err := c.sqsAPI.ReceiveMessageWithContext(ctx, in)
	if err != nil {
		return 0, err
	}
	for _, msg := range out.Messages {
		c.process(ctx, msg, handler)
	}
	return len(out.Messages), nil
}

func (c *Consumer) process(ctx context.Context, msg *sqs.Message, handler Handler) {
	logger := c.logger.WithField("messageId", aws.StringValue(msg.MessageId))
	err := handler(ctx, []byte(aws.StringValue(msg.Body)))
	switch {
	case err == nil:
		logger.Debugf("message handled")
	case IsPermanent(err):
		logger.WithError(err).Errorf("dropping message that cannot be processed")
	default:
		logger.WithError(err).Warnf("message handling failed, leaving it for redelivery")
		return
	}
	_, derr := c.sqsAPI.DeleteMessageWithContext(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.cfg.QueueURL),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if derr != nil {
		logger.WithError(derr).Warnf("unable to delete message")
	}
}
