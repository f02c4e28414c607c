package events

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"

	"kanban-board/domain"
)

type queueClient interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
}

// QueuePublisher appends every event to an Azure Storage queue for
// downstream consumers.
type QueuePublisher struct {
	queue queueClient
}

// QueueClientOptions is the retry policy used for the event queue.
func QueueClientOptions() *azqueue.ClientOptions {
	return &azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: 30 * time.Second,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
}

func NewQueuePublisher(connStr, queueName string) (*QueuePublisher, error) {
	qc, err := azqueue.NewQueueClientFromConnectionString(connStr, queueName, QueueClientOptions())
	if err != nil {
		return nil, fmt.Errorf("queue client: %w", err)
	}
	return &QueuePublisher{queue: qc}, nil
}

func (q *QueuePublisher) Send(ctx context.Context, ev domain.Event) error {
	data, err := sonic.MarshalString(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := q.queue.EnqueueMessage(ctx, data, nil); err != nil {
		return fmt.Errorf("enqueue event: %w", err)
	}
	return nil
}
