package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Leo0rg/tikitoki/internal/mq"
)

// NewStatusCmd создаёт группу команд для наблюдения за статусами.
func NewStatusCmd(amqpURLFn func() string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Watch worker status queues",
	}

	cmd.AddCommand(newStatusWatchCmd(amqpURLFn))

	return cmd
}

func newStatusWatchCmd(amqpURLFn func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <queue>",
		Short: "Print messages from a status queue (login_status, cookie_status, upload_status, qr_codes)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queue := mq.Queue(args[0])

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			conn, err := mq.NewConnection(amqpURLFn(), discardLogger())
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer conn.Close()

			if err := mq.SetupTopology(conn); err != nil {
				return fmt.Errorf("declare queues: %w", err)
			}

			consumer := mq.NewConsumer(conn, discardLogger(), mq.ConsumerConfig{
				Queue: queue,
				Handler: func(_ context.Context, body []byte) mq.Decision {
					printStatus(body)
					return mq.Ack
				},
			})

			fmt.Fprintf(os.Stderr, "watching %s, Ctrl+C to stop\n", queue)
			if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}

// printStatus печатает сообщение с отступами; не-JSON выводится как есть.
func printStatus(body []byte) {
	var pretty map[string]any
	if err := json.Unmarshal(body, &pretty); err != nil {
		fmt.Println(string(body))
		return
	}
	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Println(string(out))
}

// discardLogger — логгер для внутренних компонентов CLI:
// пользователю нужен вывод команды, а не логи соединения.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
