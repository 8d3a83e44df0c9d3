package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deskbot/pkg/config"
	"deskbot/pkg/conversation"
	"deskbot/pkg/driver"
	"deskbot/pkg/driver/telegram"
	"deskbot/pkg/logger"
	"deskbot/pkg/loop"
	"deskbot/pkg/plugin"
	"deskbot/pkg/plugins/admincmd"
	"deskbot/pkg/plugins/filters"
	"deskbot/pkg/plugins/greeting"
	"deskbot/pkg/plugins/responders"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot",
	Long:  "Loads DeskBot configuration, connects to the Telegram boundary, and runs the polling loop until an admin ends it or the process is interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		appLogger, err := logger.New(cfg.Logging)
		if err != nil {
			fmt.Printf("failed to initialize logger: %v\n", err)
			return
		}
		slog.SetDefault(appLogger)
		log := slog.Default().With("component", "cmd.run")

		mode, err := loop.ParseMode(cfg.Loop.Mode)
		if err != nil {
			log.Error("Invalid loop configuration", "error", err)
			return
		}

		conversations, err := buildConversations(cfg)
		if err != nil {
			log.Error("Invalid conversation configuration", "error", err)
			return
		}

		plugins := plugin.NewRegistry()
		cleanup, err := registerPlugins(plugins, cfg, appLogger)
		if err != nil {
			log.Error("Invalid plugin configuration", "error", err)
			return
		}
		defer cleanup()

		boundary, err := telegram.New(cfg.Driver.Telegram, appLogger)
		if err != nil {
			log.Error("Invalid driver configuration", "error", err)
			return
		}

		registry := conversation.NewRegistry()
		queue := driver.NewQueue(registry, time.Duration(cfg.Driver.SendDelayMS)*time.Millisecond, appLogger)
		client := driver.NewClient(boundary, queue, appLogger)

		l := loop.New(registry, plugins, client, loop.Options{
			Mode:             mode,
			PollInterval:     time.Duration(cfg.Loop.PollIntervalMS) * time.Millisecond,
			BackoffInterval:  time.Duration(cfg.Loop.BackoffMS) * time.Millisecond,
			ConcurrencyLimit: cfg.Loop.ConcurrencyLimit,
			Logger:           appLogger,
		})

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("Bot started", "mode", mode, "conversations", len(conversations))
		if err := l.Run(runCtx, conversations); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error("Bot runtime failed", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// buildConversations translates conversation config entries into domain
// objects.
func buildConversations(cfg *config.Config) ([]*conversation.Conversation, error) {
	conversations := make([]*conversation.Conversation, 0, len(cfg.Conversations))

	for _, entry := range cfg.Conversations {
		opts := make([]conversation.Option, 0, 4)
		if entry.SaveImage {
			opts = append(opts, conversation.WithSaveImage())
		}
		if entry.SaveVoice {
			opts = append(opts, conversation.WithSaveVoice())
		}
		if entry.SaveFile {
			opts = append(opts, conversation.WithSaveFile())
		}
		if entry.HistorySize > 0 {
			opts = append(opts, conversation.WithHistorySize(entry.HistorySize))
		}

		var conv *conversation.Conversation
		var err error
		switch entry.Kind {
		case "admin":
			opts = append(opts, conversation.WithLevel(entry.Level))
			conv, err = conversation.NewAdmin(entry.Name, opts...)
		case "group":
			if len(entry.Managers) > 0 {
				managers := make(map[string]int, len(entry.Managers))
				for _, manager := range entry.Managers {
					managers[manager.Name] = manager.Level
				}
				opts = append(opts, conversation.WithManagers(managers))
			}
			conv, err = conversation.NewGroup(entry.Name, opts...)
		case "friend":
			conv, err = conversation.NewFriend(entry.Name, opts...)
		default:
			return nil, fmt.Errorf("conversation %q: unsupported kind %q", entry.Name, entry.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("conversation %q: %w", entry.Name, err)
		}

		conversations = append(conversations, conv)
	}

	return conversations, nil
}

// registerPlugins builds the configured built-in plugins. The returned
// cleanup releases plugin resources and must run after the loop stops.
func registerPlugins(plugins *plugin.Registry, cfg *config.Config, log *slog.Logger) (func(), error) {
	cleanup := func() {}

	if cfg.Plugins.AdminCommands.Enabled {
		if err := plugins.Register(admincmd.New(log), "admin"); err != nil {
			return cleanup, err
		}
	}

	filterCfg := cfg.Plugins.Filters
	if filterCfg.DropSystem {
		if err := plugins.Register(filters.NewDropSystem(), "drop-system"); err != nil {
			return cleanup, err
		}
	}
	if filterCfg.DropTime {
		if err := plugins.Register(filters.NewDropTime(), "drop-time"); err != nil {
			return cleanup, err
		}
	}
	if filterCfg.DropRecall {
		if err := plugins.Register(filters.NewDropRecall(), "drop-recall"); err != nil {
			return cleanup, err
		}
	}
	if filterCfg.DropSelf {
		if err := plugins.Register(filters.NewDropSelf(), "drop-self"); err != nil {
			return cleanup, err
		}
	}
	if len(filterCfg.Keywords) > 0 {
		if err := plugins.Register(filters.NewKeyword(filterCfg.Keywords), "keyword"); err != nil {
			return cleanup, err
		}
	}

	responderCfg := cfg.Plugins.Responders
	if responderCfg.Log.Enabled {
		if err := plugins.Register(responders.NewLog(log), "log"); err != nil {
			return cleanup, err
		}
	}
	if responderCfg.Archive.Enabled {
		archive, err := responders.NewArchive(responderCfg.Archive.Path, log)
		if err != nil {
			return cleanup, err
		}
		cleanup = func() { _ = archive.Close() }
		if err := plugins.Register(archive, "archive"); err != nil {
			return cleanup, err
		}
	}
	if responderCfg.AI.Enabled {
		ai, err := responders.NewAI(responderCfg.AI, log)
		if err != nil {
			return cleanup, err
		}
		if err := plugins.Register(ai, "ai"); err != nil {
			return cleanup, err
		}
	}

	greetingCfg := cfg.Plugins.Greeting
	if greetingCfg.Opening != "" {
		if err := plugins.Register(greeting.NewOpening(greetingCfg.Opening), "opening"); err != nil {
			return cleanup, err
		}
	}
	if greetingCfg.Ending != "" {
		if err := plugins.Register(greeting.NewEnding(greetingCfg.Ending), "ending"); err != nil {
			return cleanup, err
		}
	}

	return cleanup, nil
}
