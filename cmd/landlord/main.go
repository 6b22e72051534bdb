package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DoyleJ11/landlord-client/internal/config"
	"github.com/DoyleJ11/landlord-client/internal/httpapi"
	"github.com/DoyleJ11/landlord-client/internal/hub"
	"github.com/DoyleJ11/landlord-client/internal/lobby"
	"github.com/DoyleJ11/landlord-client/internal/logging"
	internaltypes "github.com/DoyleJ11/landlord-client/internal/types"
	"github.com/DoyleJ11/landlord-client/internal/ws"
	"github.com/DoyleJ11/landlord-client/pkg/types"
)

const requestTimeout = 10 * time.Second

type options struct {
	user    string
	code    string
	create  bool
	join    bool
	envFile string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "landlord [lobby-code]",
		Short:         "Play Dou Dizhu lobbies from the terminal",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.code = args[0]
			}
			return run(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.user, "user", "u", "", "username to log in as")
	f.BoolVar(&opts.create, "create", false, "create a new lobby and sit in it")
	f.BoolVar(&opts.join, "join", false, "take a seat in the lobby after opening it")
	f.StringVar(&opts.envFile, "env-file", ".env", "dotenv file with LANDLORD_* settings")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func run(ctx context.Context, opts options, in io.Reader, out io.Writer) error {
	if !opts.create && opts.code == "" {
		return errors.New("give a lobby code or --create")
	}

	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	api, err := httpapi.NewClient(cfg.BaseURL, logger)
	if err != nil {
		return err
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	if err := api.Login(reqCtx, opts.user); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	code := opts.code
	if opts.create {
		if code, err = api.Create(reqCtx); err != nil {
			return fmt.Errorf("create lobby: %w", err)
		}
		fmt.Fprintf(out, "created lobby %s\n", code)
	}

	h := hub.NewHub(ctx, api, lobby.Deps{
		Dialer:       ws.NewManager(api.BaseURL(), api.HTTPClient(), cfg.WriteTimeout, logger),
		History:      api,
		Logger:       logger,
		PollInterval: cfg.PollInterval,
		ErrorTimeout: cfg.ErrorTimeout,
		ChatPageSize: cfg.ChatPageSize,
	})
	defer func() {
		h.Inbox() <- hub.ShutdownHub{}
		<-h.Done()
	}()

	mounted := make(chan hub.MountResult, 1)
	h.Inbox() <- hub.Mount{Code: code, Reply: mounted}
	res := <-mounted
	if res.Err != nil {
		return fmt.Errorf("open lobby %s: %w", code, res.Err)
	}
	lb := res.Lobby
	logger.Info("lobby mounted", zap.String("lobby", lb.Code()))

	if opts.join {
		if err := joinLobby(ctx, h, lb.Code()); err != nil {
			return err
		}
	}

	views := make(chan internaltypes.View, 1)
	lb.Inbox() <- lobby.Watch{ClientID: "terminal", Outbox: views}

	lines := make(chan string)
	go scanLines(ctx, in, lines)

	fmt.Fprintln(out, helpText)
	var last internaltypes.View
	for {
		select {
		case <-ctx.Done():
			return nil

		case v, ok := <-views:
			if !ok {
				return nil
			}
			last = v
			render(out, v)

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			c, err := parseCommand(line)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			switch {
			case c.quit:
				return nil
			case c.help:
				fmt.Fprintln(out, helpText)
			case c.join:
				if err := joinLobby(ctx, h, lb.Code()); err != nil {
					fmt.Fprintln(out, "join:", err)
				}
			default:
				msgs := c.msgs
				if c.pass {
					msgs = []lobby.Msg{passMsg(last.State, c.reply)}
				}
				for _, m := range msgs {
					lb.Inbox() <- m
				}
				if c.reply != nil {
					if err := awaitReply(ctx, c.reply); err != nil {
						fmt.Fprintln(out, "!", err)
					}
				}
			}
		}
	}
}

// passMsg is a zero bid while bidding and an empty play otherwise.
func passMsg(s types.LobbyState, reply chan error) lobby.Msg {
	if s.Status == types.PhaseBidding {
		return lobby.Bid{Value: 0, Reply: reply}
	}
	return lobby.Pass{Reply: reply}
}

func joinLobby(ctx context.Context, h *hub.Hub, code string) error {
	reply := make(chan error, 1)
	h.Inbox() <- hub.Join{Code: code, Reply: reply}
	return awaitReply(ctx, reply)
}

func awaitReply(ctx context.Context, reply <-chan error) error {
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(requestTimeout):
		return errors.New("no answer from lobby")
	}
}

func scanLines(ctx context.Context, in io.Reader, lines chan<- string) {
	defer close(lines)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		select {
		case lines <- sc.Text():
		case <-ctx.Done():
			return
		}
	}
}
