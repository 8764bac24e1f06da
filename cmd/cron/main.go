package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"folio-api/internal/cli"
	"folio-api/internal/config"
	"folio-api/internal/svc"
)

const shutdownTimeout = 10 * time.Second // Grace period for in-flight refreshes

func main() {
	var (
		configPath = flag.String("f", "etc/folio.yaml", "the config file")
		runOnStart = flag.Bool("run-on-start", false, "run every refresh task once before waiting for the schedule")
	)
	flag.Parse()
	logx.DisableStat()

	appCfg, err := config.Load(*configPath)
	if err != nil {
		logx.Errorf("load config %s: %v", *configPath, err)
		os.Exit(1)
	}
	cli.LogConfigSummary(appCfg)

	svcCtx := svc.NewServiceContext(*appCfg)
	for _, task := range svcCtx.Scheduler.Tasks() {
		logx.Infof("refresh task %s: spec=%q classes=%v", task.Name, task.Spec, task.Classes)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *runOnStart || appCfg.Schedule.RunOnStart {
		for _, summary := range svcCtx.Scheduler.RunAll(ctx) {
			if summary.Err != nil {
				logx.Errorf("initial refresh %s: %v", summary.Task, summary.Err)
			}
		}
	}

	svcCtx.Scheduler.Start()
	logx.Info("refresh worker started, press Ctrl+C to stop")

	<-ctx.Done()
	logx.Info("shutdown signal received, stopping refresh tasks")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := svcCtx.Scheduler.Stop(shutdownCtx); err != nil {
		logx.Errorf("shutdown timeout exceeded: %v", err)
		return
	}
	logx.Info("refresh worker stopped")
}
