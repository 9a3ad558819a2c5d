package bridged

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ModuleRunner runs a long-lived part of the daemon.
type ModuleRunner struct {
	Name string
	Run  func(ctx context.Context) error
}

// Supervisor runs modules until the context ends or one of them fails.
type Supervisor struct {
	Logger *zap.Logger
}

// Run starts every module and blocks until they have all returned. The first
// module error cancels the rest and is returned.
func (s Supervisor) Run(ctx context.Context, modules []ModuleRunner) error {
	if len(modules) == 0 {
		return errors.New("no modules enabled")
	}
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, len(modules))
	var wg sync.WaitGroup
	for _, module := range modules {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("starting module", zap.String("module", module.Name))
			err := module.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error("module exited", zap.String("module", module.Name), zap.Error(err))
				errCh <- err
				return
			}
			log.Info("module stopped", zap.String("module", module.Name))
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case runErr = <-errCh:
	}
	cancel()
	wg.Wait()
	return runErr
}
