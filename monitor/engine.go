package monitor

import (
	"context"
	"sync"

	Logger "github.com/Luismorlan/instag/utils/log"
)

// Engine runs background modules, each in its own routine, until its context
// is cancelled.
type Engine struct {
	Modules []Module

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewEngine(ctx context.Context, ms ...Module) *Engine {
	ctx, cancel := context.WithCancel(ctx)
	return &Engine{Modules: ms, ctx: ctx, cancel: cancel}
}

// Start runs every module in the background and returns immediately.
func (e *Engine) Start() {
	for idx := range e.Modules {
		e.wg.Add(1)
		go func(m Module) {
			defer e.wg.Done()
			Logger.Log.Infof("start engine module %s", m.Name())
			RunModuleWithGracefulRestart(e.ctx, m)
			Logger.Log.Infof("Module %s finished execution.", m.Name())
		}(e.Modules[idx])
	}
}

// Shutdown cancels all modules and waits for them to return.
func (e *Engine) Shutdown() {
	Logger.Log.Infoln("Starting graceful shutdown process. Goodbye!")
	e.cancel()
	e.wg.Wait()
}
