package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quantrail/advisor"
	"github.com/quantrail/advisor/config"
	"github.com/quantrail/advisor/gateway"
	"github.com/quantrail/advisor/logger"
	"github.com/quantrail/advisor/recorder"
	"github.com/quantrail/advisor/scheduler"
)

func main() {
	cfgPath := flag.String("config", "advisor.yaml", "path to the YAML config")
	runOnStart := flag.Bool("run-on-start", false, "run one analyze pass immediately")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	zl, err := logger.NewZapLogger()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	var rec recorder.Recorder = recorder.Noop{}
	if cfg.Database.SQLitePath != "" {
		sq, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Fatalf("open recorder: %v", err)
		}
		defer sq.Close()
		rec = sq
	}

	// The paper gateway stands in for the broker integration, which is
	// deployed separately and injected here in production builds.
	gw := gateway.NewPaper(0)

	engine, err := advisor.New(cfg, gw, zl, rec)
	if err != nil {
		log.Fatalf("build engine: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(ctx, engine, zl, 30*time.Second)
	if err := sched.Register(cfg.Schedule.AnalyzeCron, cfg.Schedule.MonitorCron); err != nil {
		log.Fatalf("register jobs: %v", err)
	}

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(cfg.Metrics.ListenAddr, nil); err != nil {
			zl.Error("metrics_server_stopped", logger.Err(err))
		}
	}()

	sched.Start()
	if *runOnStart {
		sched.RunAnalyzeNow()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	sched.Stop()
}
