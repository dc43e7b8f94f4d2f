package main

import (
	"context"
	"fmt"
	"os"

	"client-chat/internal/channel"
	"client-chat/internal/clipboard"
	"client-chat/internal/config"
	"client-chat/internal/conversation"
	"client-chat/internal/export"
	"client-chat/internal/index"
	"client-chat/internal/logging"
	"client-chat/internal/reply"
	"client-chat/internal/session"
	"client-chat/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "client-chat",
		Short: "Chat with an assistant across a master channel and client channels",
		Long: `A terminal chat client. Each client has its own conversation thread,
kept in memory for the lifetime of the process. Replies come from an HTTP
endpoint when --reply-url is set, and from a built-in synthetic replier
otherwise.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}
	config.BindFlags(rootCmd.Flags())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.AppConfig) error {
	log, closer, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	registry, err := channel.Load(cfg.ChannelsFile)
	if err != nil {
		return err
	}
	initial := cfg.InitialChannel
	if initial == "" {
		initial = registry.Initial()
	}

	store := conversation.NewStore()

	idx, err := index.Open()
	if err != nil {
		return err
	}
	defer idx.Close()
	store.Subscribe(func(msg conversation.Message) {
		if err := idx.Add(context.Background(), msg); err != nil {
			log.Warn().Err(err).Str("channel", msg.ChannelID).Msg("index message")
		}
	})

	var replier reply.Replier = reply.NewSynthetic()
	if cfg.ReplyURL != "" {
		replier = reply.NewHTTP(cfg.ReplyURL, cfg.ReplyTimeout)
	}

	exp, err := export.New(cfg.ExportDir)
	if err != nil {
		return err
	}

	ctrl := session.NewController(store, replier, initial, session.WithLogger(log))

	log.Info().
		Str("initial_channel", initial).
		Int("channels", len(registry.All())).
		Bool("http_replies", cfg.ReplyURL != "").
		Bool("fts", idx.FTS()).
		Msg("starting")

	m := ui.NewModel(ui.Deps{
		Config:     cfg,
		Registry:   registry,
		Controller: ctrl,
		Index:      idx,
		Exporter:   exp,
		Copier:     clipboard.New(),
		Logger:     log,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return errors.Wrap(err, "run program")
	}
	log.Info().Int("channels_opened", len(store.Channels())).Msg("exiting")
	return nil
}
