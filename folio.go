package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"folio-api/internal/cli"
	"folio-api/internal/config"
	"folio-api/internal/handler"
	"folio-api/internal/svc"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/proc"
	"github.com/zeromicro/go-zero/rest"
)

var configFile = flag.String("f", "etc/folio.yaml", "the config file")

const schedulerStopTimeout = 10 * time.Second

func main() {
	flag.Parse()

	cfg := config.MustLoad(*configFile)

	server := rest.MustNewServer(cfg.RestConf)
	defer server.Stop()

	ctx := svc.NewServiceContext(*cfg)
	handler.RegisterHandlers(server, ctx)
	cli.LogConfigSummary(cfg)

	if cfg.Schedule.Enabled {
		runCtx, cancelRun := context.WithCancel(context.Background())
		if cfg.Schedule.RunOnStart {
			go ctx.Scheduler.RunAll(runCtx)
		}
		ctx.Scheduler.Start()
		proc.AddShutdownListener(func() {
			cancelRun()
			stopCtx, cancel := context.WithTimeout(context.Background(), schedulerStopTimeout)
			defer cancel()
			if err := ctx.Scheduler.Stop(stopCtx); err != nil {
				logx.Errorf("refresh scheduler did not stop cleanly: %v", err)
			}
		})
	}

	fmt.Printf("Starting server at %s:%d...\n", cfg.Host, cfg.Port)
	server.Start()
}
