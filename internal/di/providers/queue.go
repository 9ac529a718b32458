package providers

import (
	"github.com/samber/do/v2"

	"github.com/inkwellapp/inkwell-server/internal/config"
	"github.com/inkwellapp/inkwell-server/internal/logger"
	"github.com/inkwellapp/inkwell-server/internal/queue"
	"github.com/inkwellapp/inkwell-server/internal/service"
)

// QueueHandle wraps the task queue with shutdown capability.
type QueueHandle struct {
	*queue.Queue
}

// Shutdown implements do.Shutdownable.
func (h *QueueHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideQueue provides the durable task queue. The queue is created stopped;
// ProvideIndexerService registers its handlers and starts it so no task runs
// before a handler exists for it.
func ProvideQueue(i do.Injector) (*QueueHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	q := queue.New(storeHandle.Store, queue.Options{
		Workers:      cfg.Queue.Workers,
		MaxAttempts:  cfg.Queue.MaxAttempts,
		PollInterval: cfg.Queue.PollInterval,
		Logger:       log.Logger,
	})

	return &QueueHandle{Queue: q}, nil
}

// ProvideIndexerService provides the index task consumer, wires it into the
// queue, and starts the workers.
func ProvideIndexerService(i do.Injector) (*service.IndexerService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	queueHandle := do.MustInvoke[*QueueHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	indexer := service.NewIndexerService(storeHandle.Store, indexHandle.Index, log.Logger)
	indexer.RegisterHandlers(queueHandle.Queue)
	queueHandle.Start()

	log.Info("Task queue started")

	return indexer, nil
}
