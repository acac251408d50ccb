package main

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nvandessel/fuzler/internal/natsrpc"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Answer scoring requests over NATS",
		Long: `Run a scoring worker that answers requests on a NATS subject.

Several workers started with the same queue group share the load. Stop with
Ctrl-C; requests already received are answered before the process exits.

Examples:
  fuzler serve --nats nats://127.0.0.1:4222
  fuzler score "a" "b" --nats nats://127.0.0.1:4222`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newScoringEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			natsURL, _ := cmd.Flags().GetString("nats")
			if natsURL == "" {
				natsURL = env.cfg.NATS.URL
			}
			if natsURL == "" {
				natsURL = nats.DefaultURL
			}
			subject := env.cfg.NATS.Subject
			if cmd.Flags().Changed("subject") {
				subject, _ = cmd.Flags().GetString("subject")
			}
			queue := env.cfg.NATS.Queue
			if cmd.Flags().Changed("queue") {
				queue, _ = cmd.Flags().GetString("queue")
			}

			svc, err := natsrpc.NewService(natsURL, env.pool, subject, queue, natsrpc.WithLogger(env.logger))
			if err != nil {
				return err
			}
			defer svc.Close()

			if err := svc.Start(); err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			fmt.Fprintf(cmd.ErrOrStderr(), "Serving %s on %s (workers: %d)\n", svc.Subject(), natsURL, env.pool.Workers())
			<-ctx.Done()
			env.logger.Info("shutting down nats scoring service")
			return nil
		},
	}

	cmd.Flags().String("nats", "", "NATS server URL (default from config, then "+nats.DefaultURL+")")
	cmd.Flags().String("subject", "", "Request subject (default from config)")
	cmd.Flags().String("queue", "", "Queue group (default from config)")

	return cmd
}
