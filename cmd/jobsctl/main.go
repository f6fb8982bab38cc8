package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kelseyhightower/envconfig"

	"github.com/nocdesk/nocdesk/cmd/jobsctl/cli"
)

type config struct {
	RedisAddr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
}

func main() {
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	err = cli.NewRootCommand(jobsCLI, os.Stdout).ExecuteContext(ctx)
	if closeErr := jobsCLI.Close(); closeErr != nil {
		fmt.Fprintln(os.Stderr, "close:", closeErr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
