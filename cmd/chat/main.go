// Command chat is a terminal Twitch chat client. It joins one channel over
// IRC-on-WebSocket, prints typed chat events, sends lines typed on stdin, and
// exposes the Helix moderation commands as slash commands.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/theplebdev/tmichat/internal/auth"
	"github.com/theplebdev/tmichat/internal/config"
	"github.com/theplebdev/tmichat/internal/helix"
	"github.com/theplebdev/tmichat/internal/irc"
	"github.com/theplebdev/tmichat/internal/logger"
	"github.com/theplebdev/tmichat/internal/session"
	"github.com/theplebdev/tmichat/internal/state"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML configuration file")
	channel := flag.String("channel", "", "Channel to join (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: DEBUG, INFO, WARN, ERROR (overrides LOG_LEVEL env)")
	noColor := flag.Bool("no-color", false, "Disable colored output (overrides TTY detection)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *channel != "" {
		cfg.Channel = *channel
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	colored := !*noColor && !cfg.Logging.NoColor &&
		term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == ""

	log, err := logger.Setup(logger.Config{
		Level:   cfg.LogLevel(),
		Colored: colored,
		LogDir:  cfg.Logging.Dir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logger: %v\n", err)
		os.Exit(1)
	}

	var creds auth.Source
	if cfg.Auth.SecretsFile != "" {
		creds = auth.NewFileSource(cfg.Auth.SecretsFile)
	} else {
		creds = &auth.StaticSource{Token: cfg.Auth.Token}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("Received shutdown signal", "signal", sig.String())
		cancel()

		time.AfterFunc(10*time.Second, func() {
			log.Error("Graceful shutdown timed out, forcing exit")
			os.Exit(1)
		})
	}()

	mgr := session.NewManager(creds, log)
	if err := mgr.Run(ctx, cfg.Channel); err != nil {
		log.Error("Failed to connect", "channel", cfg.Channel, "error", err)
		os.Exit(1)
	}

	var mod *helix.Client
	if cfg.Helix.ClientID != "" {
		mod = helix.NewClient(helix.Credentials{
			OAuthToken: cfg.Auth.Token,
			ClientID:   cfg.Helix.ClientID,
		}, log)
	}

	overlay := state.NewOverlay()
	room := state.NewRoom()

	go printEvents(mgr, overlay, room)
	go readInput(ctx, cancel, mgr, mod, cfg, log)

	<-ctx.Done()
	mgr.Close()
	log.Info("👋 Goodbye!")
}

// printEvents renders the typed event stream to stdout, consulting the
// moderation overlay so deleted and banned content is marked rather than
// shown.
func printEvents(mgr *session.Manager, overlay *state.Overlay, room *state.Room) {
	for event := range mgr.Events() {
		overlay.Apply(event)

		switch ev := event.(type) {
		case *irc.Join:
			fmt.Printf("* %s\n", ev.Status)
		case *irc.UserMessage:
			if overlay.Hidden(ev) {
				fmt.Printf("<%s> [message removed]\n", ev.DisplayName)
				continue
			}
			fmt.Printf("<%s> %s\n", ev.DisplayName, ev.Text)
		case *irc.RoomNotice:
			fmt.Printf("* %s\n", ev.Text)
		case *irc.ClearChatAll:
			fmt.Printf("* %s\n", ev.Text)
		case *irc.ClearChatBan:
			if ev.BanDuration > 0 {
				fmt.Printf("* %s timed out for %ds\n", ev.Username, ev.BanDuration)
			} else {
				fmt.Printf("* %s banned\n", ev.Username)
			}
		case *irc.ClearMessage:
			fmt.Printf("* message %s deleted\n", ev.TargetMsgID)
		case *irc.UserNotice:
			fmt.Printf("* [%s] %s\n", ev.Kind, ev.SystemMsg)
			if ev.Message != "" {
				fmt.Printf("  %s\n", ev.Message)
			}
		case *irc.RoomState:
			room.Merge(ev)
			slow, follower, subscriber, emote := room.Modes()
			fmt.Printf("* room modes: slow=%t follower=%t subscriber=%t emote=%t\n",
				slow, follower, subscriber, emote)
		case *irc.UserState:
			fmt.Printf("* you are %s (mod=%t sub=%t)\n", ev.DisplayName, ev.Mod, ev.Subscriber)
		}
	}
}

// readInput forwards stdin lines to chat. Lines starting with / are local
// commands; everything else is sent as a chat message.
func readInput(ctx context.Context, cancel context.CancelFunc, mgr *session.Manager, mod *helix.Client, cfg *config.Config, log *logger.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			runCommand(ctx, cancel, line, mgr, mod, cfg, log)
			continue
		}

		if !mgr.SendMessage(ctx, line) {
			fmt.Println("* not connected, message not sent")
		}
	}
	cancel()
}

func runCommand(ctx context.Context, cancel context.CancelFunc, line string, mgr *session.Manager, mod *helix.Client, cfg *config.Config, log *logger.Logger) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/quit":
		cancel()

	case "/reconnect":
		if err := mgr.Restart(ctx); err != nil {
			fmt.Printf("* reconnect failed: %v\n", err)
		}

	case "/ban", "/timeout":
		if mod == nil {
			fmt.Println("* moderation is disabled: set helix.client_id in the config")
			return
		}
		if len(args) < 1 {
			fmt.Printf("* usage: %s <user-id> [seconds] [reason]\n", cmd)
			return
		}
		req := helix.BanRequest{
			BroadcasterID: cfg.Helix.BroadcasterID,
			ModeratorID:   cfg.Helix.ModeratorID,
			UserID:        args[0],
		}
		if len(args) > 1 {
			if secs, err := strconv.Atoi(args[1]); err == nil {
				req.Duration = secs
				args = args[1:]
			}
		}
		if len(args) > 1 {
			req.Reason = strings.Join(args[1:], " ")
		}
		report(mod.BanUser(ctx, req))

	case "/unban":
		if mod == nil {
			fmt.Println("* moderation is disabled: set helix.client_id in the config")
			return
		}
		if len(args) != 1 {
			fmt.Println("* usage: /unban <user-id>")
			return
		}
		report(mod.UnbanUser(ctx, cfg.Helix.BroadcasterID, cfg.Helix.ModeratorID, args[0]))

	case "/delete":
		if mod == nil {
			fmt.Println("* moderation is disabled: set helix.client_id in the config")
			return
		}
		if len(args) != 1 {
			fmt.Println("* usage: /delete <message-id>")
			return
		}
		report(mod.DeleteMessage(ctx, cfg.Helix.BroadcasterID, cfg.Helix.ModeratorID, args[0]))

	case "/settings":
		if mod == nil {
			fmt.Println("* moderation is disabled: set helix.client_id in the config")
			return
		}
		res := mod.GetChatSettings(ctx, cfg.Helix.BroadcasterID, cfg.Helix.ModeratorID)
		if !res.OK() {
			fmt.Printf("* %s\n", res.Message)
			return
		}
		s := res.Value
		fmt.Printf("* settings: slow=%t follower=%t subscriber=%t emote=%t\n",
			s.SlowMode, s.FollowerMode, s.SubscriberMode, s.EmoteMode)

	case "/slow":
		if mod == nil {
			fmt.Println("* moderation is disabled: set helix.client_id in the config")
			return
		}
		if len(args) != 1 {
			fmt.Println("* usage: /slow <seconds|off>")
			return
		}
		update := helix.ChatSettingsUpdate{}
		if args[0] == "off" {
			off := false
			update.SlowMode = &off
		} else {
			secs, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Println("* usage: /slow <seconds|off>")
				return
			}
			on := true
			update.SlowMode = &on
			update.SlowModeWaitTime = &secs
		}
		reportSettings(mod.UpdateChatSettings(ctx, cfg.Helix.BroadcasterID, cfg.Helix.ModeratorID, update))

	default:
		fmt.Printf("* unknown command %s\n", cmd)
		log.Debug("Unknown slash command", "command", cmd)
	}
}

func report(res helix.Result[struct{}]) {
	if res.OK() {
		fmt.Println("* done")
		return
	}
	fmt.Printf("* %s\n", res.Message)
}

func reportSettings(res helix.Result[helix.ChatSettings]) {
	if !res.OK() {
		fmt.Printf("* %s\n", res.Message)
		return
	}
	s := res.Value
	fmt.Printf("* settings: slow=%t follower=%t subscriber=%t emote=%t\n",
		s.SlowMode, s.FollowerMode, s.SubscriberMode, s.EmoteMode)
}
