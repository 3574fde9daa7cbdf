package usecases

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/entities"
	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/ports"
)

// DefaultDebounce is how long a directory must stay quiet before a rebuild.
const DefaultDebounce = 500 * time.Millisecond

// DirLoader reads the documents of a directory in a stable order.
type DirLoader func(dir string) (entities.DocumentSet, error)

// WatchUseCase keeps a knowledge base in sync with a document directory.
type WatchUseCase struct {
	watcher  ports.FileWatcher
	pipeline *Pipeline
	load     DirLoader
	debounce time.Duration
	log      logr.Logger
}

// NewWatchUseCase creates a WatchUseCase. debounce <= 0 means DefaultDebounce.
func NewWatchUseCase(watcher ports.FileWatcher, pipeline *Pipeline, load DirLoader, debounce time.Duration, log logr.Logger) *WatchUseCase {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &WatchUseCase{
		watcher:  watcher,
		pipeline: pipeline,
		load:     load,
		debounce: debounce,
		log:      log.WithName("watch"),
	}
}

// Run builds the directory once, then again after every burst of changes,
// handing each successful result to onBuild. Failed rebuilds are logged and
// the previous knowledge base stays in place. Run returns when ctx is done.
func (uc *WatchUseCase) Run(ctx context.Context, dir string, onBuild func(*BuildResult)) error {
	events, err := uc.watcher.Watch(ctx, dir)
	if err != nil {
		return err
	}

	uc.rebuild(ctx, dir, onBuild)

	timer := time.NewTimer(uc.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			uc.log.V(1).Info("document changed", "path", ev.Path, "op", ev.Operation.String())
			timer.Reset(uc.debounce)
		case <-timer.C:
			uc.rebuild(ctx, dir, onBuild)
		}
	}
}

func (uc *WatchUseCase) rebuild(ctx context.Context, dir string, onBuild func(*BuildResult)) {
	docs, err := uc.load(dir)
	if err != nil {
		uc.log.Error(err, "reading documents", "dir", dir)
		return
	}

	res, err := uc.pipeline.BuildOrLoad(ctx, docs)
	if err != nil {
		uc.log.Error(err, "rebuilding knowledge base", "dir", dir, "documents", len(docs))
		return
	}
	onBuild(res)
}
