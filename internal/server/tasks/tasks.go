// Package tasks defines background jobs processed through asynq with Redis
// as the broker. The only job today is best-effort blob deletion after a
// file's metadata row is removed.
package tasks

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TypeBlobDelete removes an orphaned object from the blob store.
const TypeBlobDelete = "blob:delete"

// QueueStorage carries storage housekeeping jobs.
const QueueStorage = "storage"

type blobDeletePayload struct {
	StorageKey string `json:"storage_key"`
}

// NewBlobDeleteTask builds the asynq task for deleting a stored object.
func NewBlobDeleteTask(storageKey string) (*asynq.Task, error) {
	payload, err := json.Marshal(blobDeletePayload{StorageKey: storageKey})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeBlobDelete, payload), nil
}

// Enqueuer submits background jobs. It satisfies services.BlobDeleteEnqueuer.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer wraps an asynq client. The caller owns the client's lifecycle.
func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueBlobDelete schedules a blob removal on the storage queue.
func (e *Enqueuer) EnqueueBlobDelete(ctx context.Context, storageKey string) error {
	task, err := NewBlobDeleteTask(storageKey)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task, asynq.Queue(QueueStorage))
	return err
}
