package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"

	"github.com/maestrohq/maestroctl/internal/app/chat"
	"github.com/maestrohq/maestroctl/internal/controller"
	"github.com/maestrohq/maestroctl/internal/conventions"
	"github.com/maestrohq/maestroctl/internal/model"
	"github.com/maestrohq/maestroctl/internal/printer"
)

const replPrompt = "> "

type ChatCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	message       string
	sessionID     string
	newSession    bool
	pollInterval  time.Duration
	pollTimeout   time.Duration
	submitTimeout time.Duration
	format        string
}

// NewChatCommand returns the chat command.
func NewChatCommand(rootCmd *RootCommand, app *kingpin.Application) *ChatCommand {
	c := &ChatCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("chat", "Send a task to the orchestrator and wait for the answer, without message starts an interactive conversation.")
	c.Cmd.Arg("message", "Task description.").StringVar(&c.message)
	c.Cmd.Flag("session", "Conversation session ID (default latest session).").StringVar(&c.sessionID)
	c.Cmd.Flag("new-session", "Start a new conversation session.").BoolVar(&c.newSession)
	c.Cmd.Flag("poll-interval", fmt.Sprintf("Time between task status checks (default %s).", conventions.DefaultPollInterval)).DurationVar(&c.pollInterval)
	c.Cmd.Flag("poll-timeout", fmt.Sprintf("Time to wait for a task answer (default %s).", conventions.DefaultPollTimeout)).DurationVar(&c.pollTimeout)
	c.Cmd.Flag("submit-timeout", "Task creation timeout.").Default(conventions.DefaultSubmitTimeout.String()).DurationVar(&c.submitTimeout)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c ChatCommand) Name() string { return c.Cmd.FullCommand() }

func (c ChatCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	settings, err := c.rootCmd.Settings(ctx)
	if err != nil {
		return err
	}

	orch, err := c.rootCmd.NewOrchestrator(settings)
	if err != nil {
		return fmt.Errorf("could not create orchestrator client: %w", err)
	}

	repo, err := c.rootCmd.NewRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	ctrl, err := controller.New(controller.Config{
		API:            orch,
		UserID:         settings.UserID,
		PollInterval:   first(c.pollInterval, settings.PollInterval),
		PollTimeout:    first(c.pollTimeout, settings.PollTimeout),
		SubmitTimeout:  c.submitTimeout,
		RequestTimeout: settings.HTTPTimeout,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("could not create controller: %w", err)
	}

	svc, err := chat.NewService(chat.ServiceConfig{
		Controller:   ctrl,
		Orchestrator: orch,
		Repository:   repo,
		UserID:       settings.UserID,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	p := c.rootCmd.NewPrinter(c.format)

	var g run.Group

	// Task controller event loop.
	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(
			func() error {
				return ctrl.Run(ctx)
			},
			func(_ error) {
				cancel()
			},
		)
	}

	// Conversation.
	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(
			func() error {
				if strings.TrimSpace(c.message) != "" {
					return c.once(ctx, svc, p)
				}
				return c.repl(ctx, svc, p)
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}

func (c ChatCommand) once(ctx context.Context, svc *chat.Service, p printer.Printer) error {
	resp, err := svc.Run(ctx, chat.Request{
		Message:    c.message,
		SessionID:  c.sessionID,
		NewSession: c.newSession,
	})
	if resp != nil {
		if perr := c.print(p, resp); perr != nil {
			return perr
		}
	}
	c.logOutcome(resp, err)

	return err
}

func (c ChatCommand) repl(ctx context.Context, svc *chat.Service, p printer.Printer) error {
	out := c.rootCmd.Stdout
	fmt.Fprintln(out, "Type a task and press enter, /new starts a new session, /exit quits.")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.rootCmd.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	sessionID := c.sessionID
	newSession := c.newSession
	for {
		fmt.Fprint(out, replPrompt)

		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(l)
		}

		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/new":
			sessionID, newSession = "", true
			fmt.Fprintln(out, "Next message starts a new session.")
			continue
		}

		resp, err := svc.Run(ctx, chat.Request{
			Message:    line,
			SessionID:  sessionID,
			NewSession: newSession,
		})
		if resp != nil {
			sessionID, newSession = resp.Session.ID, false
			if err := c.print(p, resp); err != nil {
				return err
			}
		}
		c.logOutcome(resp, err)

		if err != nil && !chat.IsDegraded(err) {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(c.rootCmd.Stderr, "Error: %s\n", err)
		}
	}
}

// print prints the assistant side of the exchange, the user already knows what was sent.
func (c ChatCommand) print(p printer.Printer, resp *chat.Response) error {
	msgs := resp.Messages
	if c.format == formatTable {
		msgs = []model.Message{}
		for _, m := range resp.Messages {
			if m.Role == model.RoleAssistant {
				msgs = append(msgs, m)
			}
		}
	}

	if err := p.PrintMessages(msgs); err != nil {
		return fmt.Errorf("could not print messages: %w", err)
	}

	return nil
}

func (c ChatCommand) logOutcome(resp *chat.Response, err error) {
	if errors.Is(err, model.ErrTimeoutExceeded) && resp != nil && resp.Task != nil {
		c.rootCmd.Logger.Warningf("Task %s has no answer yet, check it later with: maestroctl task status %s", resp.Task.ID, resp.Task.ID)
	}
}
