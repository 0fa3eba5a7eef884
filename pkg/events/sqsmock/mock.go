package sqsmock

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
)

func NewMockSQS() *MockSQS {
	return &MockSQS{
		queues: map[string][]*sqs.Message{},
	}
}

// MockSQS mimics SQS queues for testing. Received messages stay in flight
// until deleted.
type MockSQS struct {
	sync.Mutex
	sqsiface.SQSAPI

	queues   map[string][]*sqs.Message
	inFlight map[string]*sqs.Message
	nextID   int

	Sent    []*sqs.SendMessageInput
	Deleted []string
	// SendErr makes every SendMessage fail.
	SendErr error
}

// Enqueue adds a message body to queueURL.
func (m *MockSQS) Enqueue(queueURL, body string) {
	m.Lock()
	defer m.Unlock()
	m.nextID++
	id := fmt.Sprintf("msg-%d", m.nextID)
	m.queues[queueURL] = append(m.queues[queueURL], &sqs.Message{
		MessageId:     aws.String(id),
		ReceiptHandle: aws.String("receipt-" + id),
		Body:          aws.String(body),
	})
}

// InFlight returns the number of received but undeleted messages.
func (m *MockSQS) InFlight() int {
	m.Lock()
	defer m.Unlock()
	return len(m.inFlight)
}

func (m *MockSQS) SendMessageWithContext(_ aws.Context, in *sqs.SendMessageInput, _ ...request.Option) (*sqs.SendMessageOutput, error) {
	m.Lock()
	defer m.Unlock()
	if m.SendErr != nil {
		return nil, m.SendErr
	}
	m.Sent = append(m.Sent, in)
	return &sqs.SendMessageOutput{MessageId: aws.String(fmt.Sprintf("sent-%d", len(m.Sent)))}, nil
}

func (m *MockSQS) ReceiveMessageWithContext(_ aws.Context, in *sqs.ReceiveMessageInput, _ ...request.Option) (*sqs.ReceiveMessageOutput, error) {
	m.Lock()
	defer m.Unlock()
	if m.inFlight == nil {
		m.inFlight = map[string]*sqs.Message{}
	}
	queueURL := aws.StringValue(in.QueueUrl)
	n := int(aws.Int64Value(in.MaxNumberOfMessages))
	if n <= 0 {
		n = 1
	}
	pending := m.queues[queueURL]
	if n > len(pending) {
		n = len(pending)
	}
	out := &sqs.ReceiveMessageOutput{Messages: pending[:n]}
	m.queues[queueURL] = pending[n:]
	for _, msg := range out.Messages {
		m.inFlight[aws.StringValue(msg.ReceiptHandle)] = msg
	}
	return out, nil
}

func (m *MockSQS) DeleteMessageWithContext(_ aws.Context, in *sqs.DeleteMessageInput, _ ...request.Option) (*sqs.DeleteMessageOutput, error) {
	m.Lock()
	defer m.Unlock()
	receipt := aws.StringValue(in.ReceiptHandle)
	if _, ok := m.inFlight[receipt]; !ok {
		return nil, errors.New("receipt handle is invalid")
	}
	delete(m.inFlight, receipt)
	m.Deleted = append(m.Deleted, receipt)
	return &sqs.DeleteMessageOutput{}, nil
}
