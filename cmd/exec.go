package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"biletmaster/config"
	"biletmaster/internal/gateway"
	"biletmaster/internal/parser"
	"biletmaster/presenter"
	"biletmaster/services"
	"biletmaster/utils"
	"biletmaster/views"
)

// Execute runs the command line.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "biletmaster",
		Short:         "Browse biletmaster.ro events by location",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newServeCmd(),
		newWatchCmd(),
		newLocationsCmd(),
		newEventsCmd(),
	)
	return root
}

// app holds everything the subcommands share.
type app struct {
	cfg *config.Config
	log *slog.Logger

	redis     *redis.Client // nil unless CACHE_BACKEND=redis
	breaker   *utils.CircuitBreaker
	source    *services.CachedSource
	prober    *gateway.Prober
	messenger views.Messenger // nil unless PubNub keys are set
	loc       *time.Location
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func newApp(ctx context.Context) (*app, error) {
	cfg := config.LoadConfig()
	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)

	if err := cfg.LoadGroupKeysFile(); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		log.Warn("unknown time zone, using UTC", "tz", cfg.TimeZone, "error", err)
		loc = time.UTC
	}

	a := &app{cfg: cfg, log: log, loc: loc}

	var store services.SnapshotStore
	switch cfg.CacheBackend {
	case "redis":
		a.redis, err = utils.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		store = services.NewRedisSnapshotStore(a.redis, cfg.SnapshotPrefix)
	case "memory", "":
		store = services.NewMemorySnapshotStore()
	default:
		return nil, fmt.Errorf("unknown CACHE_BACKEND %q", cfg.CacheBackend)
	}

	a.breaker = utils.NewCircuitBreaker("biletmaster", utils.BreakerSettings{
		MaxRequests:  uint32(max(cfg.BreakerMaxRequests, 0)),
		Timeout:      cfg.BreakerTimeout,
		FailureRatio: cfg.BreakerFailureRatio,
	})

	fetcher := gateway.NewHTTPGateway(gateway.NewHTTPClient(cfg.HTTPTimeout), a.breaker, cfg.UserAgent)
	aggregation := services.NewAggregationService(fetcher, parser.NewHTMLParser(loc), cfg.BaseURL, cfg.LocationsPath, log)
	a.source = services.NewCachedSource(aggregation, store, log)

	a.prober = gateway.NewProber(gateway.NewHTTPClient(cfg.ProbeTimeout), cfg.BaseURL, cfg.ProbeInterval, log)

	if cfg.PubNubEnabled() {
		a.messenger = views.NewPubNubMessenger(cfg.PubNubPublishKey, cfg.PubNubSubscribeKey, cfg.PubNubSecretKey, utils.NewSessionID("biletmaster"))
	}

	log.Info("configured",
		"base_url", cfg.BaseURL,
		"cache", cfg.CacheBackend,
		"group_keys", strings.Join(cfg.GroupKeys, ","),
		"pubnub", cfg.PubNubEnabled(),
	)
	return a, nil
}

// mirrors returns the PubNub view for a session, if PubNub is configured.
// Its inbound channel is read until ctx is done.
func (a *app) mirrors(ctx context.Context, sessionID string) []presenter.Sink {
	if a.messenger == nil {
		return nil
	}
	view := views.NewPubNubView(a.messenger, a.cfg.PubNubChannelPrefix, sessionID, a.log)
	go view.Listen(ctx)
	a.log.Info("mirroring session", "session", sessionID,
		"out", view.OutboundChannel(), "in", view.InboundChannel())
	return []presenter.Sink{view}
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
