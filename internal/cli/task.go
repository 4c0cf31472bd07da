package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Leo0rg/tikitoki/internal/domain"
	"github.com/Leo0rg/tikitoki/internal/mq"
)

// publishTimeout — предел на подключение и публикацию одной задачи.
const publishTimeout = 10 * time.Second

// Publisher подключается к брокеру и публикует payload в очередь.
type Publisher func(queue mq.Queue, payload any) error

// NewTaskCmd создаёт группу команд для публикации задач.
func NewTaskCmd(publishFn func() Publisher) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Publish tasks to the worker queues",
	}

	cmd.AddCommand(
		newTaskLoginCmd(publishFn),
		newTaskCookiesCmd(publishFn),
		newTaskUploadCmd(publishFn),
	)

	return cmd
}

func newTaskLoginCmd(publishFn func() Publisher) *cobra.Command {
	var task domain.LoginTask
	var proxy proxyFlags

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Publish a login task",
		RunE: func(cmd *cobra.Command, args []string) error {
			task.Proxy = proxy.descriptor()
			if err := task.Validate(); err != nil {
				return err
			}
			return publishFn()(mq.QueueLoginTasks, task)
		},
	}

	cmd.Flags().Int64Var(&task.TgUserID, "tg-user", 1, "Telegram user id for the reply")
	cmd.Flags().StringVar(&task.AccountName, "account", "", "Account name (required)")
	cmd.Flags().StringVar(&task.Username, "username", "", "TikTok username (omit for QR login)")
	cmd.Flags().StringVar(&task.Password, "password", "", "TikTok password (omit for QR login)")
	proxy.register(cmd)
	cmd.MarkFlagRequired("account")

	return cmd
}

func newTaskCookiesCmd(publishFn func() Publisher) *cobra.Command {
	var task domain.CookieTask
	var file string

	cmd := &cobra.Command{
		Use:   "cookies",
		Short: "Publish a cookie import task from an export file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read export: %w", err)
			}
			task.CookiesJSON = string(data)
			if err := task.Validate(); err != nil {
				return err
			}
			return publishFn()(mq.QueueCookieTasks, task)
		},
	}

	cmd.Flags().Int64Var(&task.TgUserID, "tg-user", 1, "Telegram user id for the reply")
	cmd.Flags().StringVar(&task.AccountName, "account", "", "Account name (required)")
	cmd.Flags().StringVar(&file, "file", "", "Cookie export JSON file (required)")
	cmd.MarkFlagRequired("account")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newTaskUploadCmd(publishFn func() Publisher) *cobra.Command {
	var task domain.UploadTask
	var proxy proxyFlags

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Publish a video upload task",
		RunE: func(cmd *cobra.Command, args []string) error {
			task.Proxy = proxy.descriptor()
			if err := task.Validate(); err != nil {
				return err
			}
			return publishFn()(mq.QueueVideoTasks, task)
		},
	}

	cmd.Flags().StringVar(&task.S3VideoKey, "key", "", "S3 object key of the video (required)")
	cmd.Flags().StringVar(&task.AccountName, "account", "", "Account name (required)")
	cmd.Flags().StringVar(&task.Username, "username", "", "TikTok username")
	cmd.Flags().StringVar(&task.Password, "password", "", "TikTok password")
	cmd.Flags().StringVar(&task.Description, "description", "", "Video description (required)")
	cmd.Flags().StringSliceVar(&task.Hashtags, "hashtag", nil, "Hashtag (repeatable)")
	cmd.Flags().StringVar(&task.SoundName, "sound", "", "Sound name")
	cmd.Flags().StringVar(&task.FavoriteSoundName, "favorite-sound", "", "Favorite sound name")
	cmd.Flags().StringVar(&task.SoundAudVol, "sound-vol", "", "Sound volume: main, mix or background")
	proxy.register(cmd)
	cmd.MarkFlagRequired("key")
	cmd.MarkFlagRequired("account")
	cmd.MarkFlagRequired("description")

	return cmd
}

// proxyFlags — общие флаги прокси для команд задач.
type proxyFlags struct {
	host     string
	port     int
	username string
	password string
}

func (p *proxyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.host, "proxy-host", "", "Proxy host")
	cmd.Flags().IntVar(&p.port, "proxy-port", 0, "Proxy port")
	cmd.Flags().StringVar(&p.username, "proxy-user", "", "Proxy username")
	cmd.Flags().StringVar(&p.password, "proxy-pass", "", "Proxy password")
}

func (p *proxyFlags) descriptor() *domain.Proxy {
	if p.host == "" {
		return nil
	}
	return &domain.Proxy{Host: p.host, Port: p.port, Username: p.username, Password: p.password}
}

// NewPublisher возвращает Publisher с коротким соединением на вызов:
// CLI живёт секунды, держать постоянное соединение незачем.
func NewPublisher(amqpURL string) Publisher {
	return func(queue mq.Queue, payload any) error {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		conn, err := mq.NewConnection(amqpURL, discardLogger())
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		defer conn.Close()

		if err := mq.SetupTopology(conn); err != nil {
			return fmt.Errorf("declare queues: %w", err)
		}

		pub := mq.NewPublisher(conn, discardLogger())
		if err := pub.Publish(ctx, queue, payload); err != nil {
			return err
		}

		fmt.Printf("published to %s\n", queue)
		return nil
	}
}
