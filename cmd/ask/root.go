package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Kairi/ask/internal/chat"
	"github.com/Kairi/ask/internal/config"
	"github.com/Kairi/ask/internal/history"
	"github.com/Kairi/ask/internal/logging"
	"github.com/Kairi/ask/internal/repl"
	"github.com/Kairi/ask/internal/transport"
)

// emptyInputReply is printed when there is nothing to ask.
const emptyInputReply = "May I help you?"

// app carries the process dependencies so tests can replace them.
type app struct {
	stdout io.Writer
	stderr io.Writer
	env    config.LookupFunc

	// endpoint overrides the completion URL when non-empty.
	endpoint    string
	newSender   func(cfg *config.Config) transport.Sender
	newPrompter func() repl.Prompter
	newStore    func() (*history.Store, error)
}

func newApp() *app {
	return &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		env:    os.LookupEnv,
		newSender: func(cfg *config.Config) transport.Sender {
			return transport.NewHTTPSender(transport.Options{ConnectTimeout: cfg.ConnectTimeout, Token: cfg.APIKey})
		},
		newPrompter: func() repl.Prompter { return repl.NewLiner() },
		newStore:    history.NewStore,
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           config.AppName + " [flags] [question...]",
		Short:         "Send a question to a chat completion model and print the reply",
		Version:       config.AppVersion,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), cmd.Flags(), args)
		},
	}
	// everything after the first word belongs to the question
	cmd.Flags().SetInterspersed(false)
	config.Bind(cmd.Flags())
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	return cmd
}

func (a *app) run(ctx context.Context, fs *pflag.FlagSet, args []string) error {
	file, err := config.LoadFile(config.ConfigPath(fs, a.env))
	if err != nil {
		return err
	}
	cfg, err := config.Resolve(fs, args, a.env, file)
	if err != nil {
		return err
	}
	log := logging.New(a.stderr, config.AppName, cfg.Verbosity)

	if !cfg.Interactive && !cfg.HasInput() {
		fmt.Fprintln(a.stdout, emptyInputReply)
		return nil
	}

	client := chat.NewClient(a.newSender(cfg), chat.ParamsFromConfig(cfg), log)
	if a.endpoint != "" {
		client.Endpoint = a.endpoint
	}

	switch {
	case cfg.DryRun:
		return a.dryRun(client, cfg)
	case cfg.Interactive:
		return a.interactive(ctx, client, cfg, log)
	}

	answer, err := client.Ask(ctx, cfg.SystemPrompt, cfg.Input)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(a.stdout)
	if _, err := w.WriteString(answer); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if cfg.Save != "" {
		messages := append(chat.NewConversation(cfg.SystemPrompt, cfg.Input), chat.Message{Role: chat.RoleAssistant, Content: answer})
		return a.save(cfg.Save, messages, log)
	}
	return nil
}

func (a *app) dryRun(client *chat.Client, cfg *config.Config) error {
	messages := chat.NewConversation(cfg.SystemPrompt, cfg.Input)
	body, err := client.Body(messages)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stderr, "POST %s (approximate prompt tokens: %d)\n", client.Endpoint, chat.ApproxNumTokensInMessages(messages))
	_, err = fmt.Fprintf(a.stdout, "%s\n", body)
	return err
}

func (a *app) interactive(ctx context.Context, client *chat.Client, cfg *config.Config, log logr.Logger) error {
	store, err := a.newStore()
	if err != nil {
		log.Error(err, "history disabled")
		store = nil
	}
	s := repl.NewSession(a.newPrompter(), client, store, a.stdout, a.stderr, log)
	s.Model = cfg.Model
	s.SystemPrompt = cfg.SystemPrompt
	s.Name = cfg.Save
	return s.Run(ctx)
}

func (a *app) save(name string, messages []chat.Message, log logr.Logger) error {
	store, err := a.newStore()
	if err != nil {
		return err
	}
	saved, err := store.Save(name, messages)
	if err != nil {
		return err
	}
	log.V(1).Info("conversation saved", "name", saved, "dir", store.Dir)
	return nil
}
