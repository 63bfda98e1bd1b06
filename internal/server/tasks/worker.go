package tasks

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"devfolio/internal/logging"
)

// BlobDeleter is the storage surface the worker needs. Satisfied by
// blob.Store.
type BlobDeleter interface {
	Delete(ctx context.Context, key string) error
}

// Worker processes background jobs. Blob deletion is fire-and-forget: a
// failed delete is logged and dropped rather than retried, matching the
// at-most-once posture of the rest of the system.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	store  BlobDeleter
	logger logging.Logger
}

// NewWorker builds a worker consuming the storage queue from the given Redis
// address.
func NewWorker(redisAddr string, store BlobDeleter, logger logging.Logger) *Worker {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 4,
			Queues:      map[string]int{QueueStorage: 1, "default": 1},
		},
	)

	w := &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
		store:  store,
		logger: logger,
	}
	w.mux.HandleFunc(TypeBlobDelete, w.handleBlobDelete)
	return w
}

// Start runs the worker in the background.
func (w *Worker) Start() error {
	return w.server.Start(w.mux)
}

// Shutdown drains in-flight jobs and stops the worker.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleBlobDelete(ctx context.Context, t *asynq.Task) error {
	var payload blobDeletePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		w.logger.Error(ctx, "malformed blob delete payload", "error", err)
		return nil
	}

	if err := w.store.Delete(ctx, payload.StorageKey); err != nil {
		w.logger.Warn(ctx, "blob delete failed", "storage_key", payload.StorageKey, "error", err)
		return nil
	}

	w.logger.Debug(ctx, "blob deleted", "storage_key", payload.StorageKey)
	return nil
}
