package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-logr/logr"
	"github.com/peterh/liner"

	"github.com/Kairi/ask/internal/chat"
	"github.com/Kairi/ask/internal/history"
)

// Prompter reads edited lines from the terminal. *liner.State implements it.
type Prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// Completer sends a conversation and returns the reply.
type Completer interface {
	Complete(ctx context.Context, messages []chat.Message) (string, error)
}

// NewLiner returns a line editor with Ctrl+C aborting the current line.
func NewLiner() *liner.State {
	rl := liner.NewLiner()
	rl.SetCtrlCAborts(true)
	return rl
}

// Session is an interactive multi-turn chat
type Session struct {
	Model        string
	SystemPrompt string
	// Name is the history entry the conversation is saved under on exit.
	// Empty means the conversation is not saved unless /save is used.
	Name string

	prompter   Prompter
	client     Completer
	store      *history.Store
	out        io.Writer
	errOut     io.Writer
	log        logr.Logger
	messages   []chat.Message
	ansiColors map[string]string
}

// NewSession creates a session. store may be nil, which disables the
// history commands.
func NewSession(p Prompter, client Completer, store *history.Store, out, errOut io.Writer, log logr.Logger) *Session {
	return &Session{
		prompter: p,
		client:   client,
		store:    store,
		out:      out,
		errOut:   errOut,
		log:      log,
		ansiColors: map[string]string{
			"reset":  "\033[0m",
			"green":  "\033[32m",
			"blue":   "\033[34m",
			"yellow": "\033[33m",
		},
	}
}

// Messages returns the current conversation.
func (s *Session) Messages() []chat.Message {
	return s.messages
}

func (s *Session) reset() {
	s.messages = nil
	if s.SystemPrompt != "" {
		s.messages = append(s.messages, chat.Message{Role: chat.RoleSystem, Content: s.SystemPrompt})
	}
}

// Run reads lines until exit or EOF, sending each one with the
// conversation so far.
func (s *Session) Run(ctx context.Context) error {
	s.reset()
	fmt.Fprintf(s.out, "%sask interactive chat (%s)%s\n", s.ansiColors["yellow"], s.Model, s.ansiColors["reset"])
	if s.SystemPrompt != "" {
		fmt.Fprintf(s.out, "System prompt: %s\n\n", s.SystemPrompt)
	}
	fmt.Fprintln(s.out, "Type your message and press Enter. Type 'exit' or Ctrl+D to quit.")

	for {
		if err := ctx.Err(); err != nil {
			return s.finish(err)
		}

		fmt.Fprint(s.out, s.ansiColors["green"])
		line, err := s.prompter.Prompt("You: ")
		fmt.Fprint(s.out, s.ansiColors["reset"])
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out, "\nExiting.")
				return s.finish(nil)
			}
			return s.finish(fmt.Errorf("read error: %w", err))
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" {
			fmt.Fprintln(s.out, "Exiting.")
			return s.finish(nil)
		}
		s.prompter.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			s.command(input)
			continue
		}
		s.send(ctx, input)
	}
}

func (s *Session) send(ctx context.Context, input string) {
	s.messages = append(s.messages, chat.Message{Role: chat.RoleUser, Content: input})
	fmt.Fprintf(s.out, "%s is thinking...\n", s.Model)

	resp, err := s.client.Complete(ctx, s.messages)
	if err != nil {
		s.messages = s.messages[:len(s.messages)-1]
		fmt.Fprintf(s.errOut, "Chat error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "%s\U0001F916 %s:%s %s\n\n", s.ansiColors["blue"], s.Model, s.ansiColors["reset"], resp)
	s.messages = append(s.messages, chat.Message{Role: chat.RoleAssistant, Content: resp})
}

// command handles /new, /save [name], /load <name> and /list.
func (s *Session) command(line string) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/new":
		s.reset()
		s.Name = ""
		fmt.Fprintln(s.out, "Started a new conversation.")
		return
	case "/save", "/load", "/list":
	default:
		fmt.Fprintln(s.out, "Invalid command. Use '/new', '/save [name]', '/load <name>', or '/list'.")
		return
	}

	if s.store == nil {
		fmt.Fprintln(s.errOut, "History is not available.")
		return
	}

	switch cmd {
	case "/save":
		if arg == "" {
			arg = s.Name
		}
		name, err := s.store.Save(arg, s.messages)
		if err != nil {
			fmt.Fprintf(s.errOut, "Error saving conversation: %v\n", err)
			return
		}
		s.Name = name
		fmt.Fprintf(s.out, "Conversation '%s' saved.\n", name)
	case "/load":
		if arg == "" {
			fmt.Fprintln(s.out, "Usage: /load <name>")
			return
		}
		loaded, err := s.store.Load(arg)
		if err != nil {
			fmt.Fprintf(s.errOut, "Error loading conversation '%s': %v\n", arg, err)
			return
		}
		s.messages = loaded
		s.Name = arg
		fmt.Fprintf(s.out, "Conversation '%s' loaded (%d messages).\n", arg, len(loaded))
	case "/list":
		threads, err := s.store.List()
		if err != nil {
			fmt.Fprintf(s.errOut, "Error listing conversations: %v\n", err)
			return
		}
		if len(threads) == 0 {
			fmt.Fprintln(s.out, "No existing conversations.")
			return
		}
		fmt.Fprintln(s.out, "Existing conversations:")
		for _, t := range threads {
			fmt.Fprintf(s.out, "- %s\n", t)
		}
	}
}

// finish saves the conversation when it has a name and closes the prompter.
func (s *Session) finish(cause error) error {
	var saveErr error
	if s.Name != "" && s.store != nil && len(s.messages) > 0 {
		if _, saveErr = s.store.Save(s.Name, s.messages); saveErr == nil {
			s.log.V(1).Info("conversation saved", "name", s.Name, "messages", len(s.messages))
		}
	}
	closeErr := s.prompter.Close()
	return errors.Join(cause, saveErr, closeErr)
}
