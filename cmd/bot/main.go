package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homeworkbot/internal/app"
	"homeworkbot/internal/config"
	logx "homeworkbot/pkg/logx"
)

func main() {
	var cfgPath, envPath string
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config yaml/json (missing file = defaults)")
	flag.StringVar(&envPath, "env", ".env", "dotenv file loaded before reading credentials")
	flag.Parse()

	boot := logx.NewConsole("info").With(logx.String("comp", "main"))

	if err := config.LoadDotEnv(envPath); err != nil {
		boot.Critical("failed to load env file", logx.String("path", envPath), logx.Err(err))
		os.Exit(1)
	}
	creds, err := config.LoadCredentials(os.Getenv)
	if err != nil {
		boot.Critical("credentials check failed, exiting", logx.Err(err))
		os.Exit(1)
	}

	a, err := app.New(app.Options{ConfigPath: cfgPath, Credentials: creds})
	if err != nil {
		boot.Critical("startup failed", logx.Err(err))
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Start(ctx); err != nil {
		boot.Critical("start failed", logx.Err(err))
		os.Exit(1)
	}

	reason := app.StopUnknown
	select {
	case sig := <-sigCh:
		if sig == syscall.SIGTERM {
			reason = app.StopSIGTERM
		} else {
			reason = app.StopSIGINT
		}
	case <-a.Done():
		reason = app.StopFatalError
	}
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	_ = a.Stop(stopCtx, reason)

	if reason.Fatal() {
		boot.Critical("stopped on fatal error", logx.Err(a.Err()))
		os.Exit(1)
	}
}
