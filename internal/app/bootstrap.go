package app

import (
	"errors"

	"github.com/medialoom/bonusledger/internal/config"
	"github.com/medialoom/bonusledger/internal/provider"
	"github.com/medialoom/bonusledger/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)

	consumer := worker.NewConsumer(container)
	workerService, err := worker.NewService(&cfg.Queue, consumer)
	if err != nil {
		return nil, err
	}

	return NewRunner(workerService), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "mode", opts.Config.Server.Mode)
	return RunWithOptions(runner, opts)
}
