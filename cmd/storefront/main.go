package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Skotchmaster/momento/internal/apiclient"
	"github.com/Skotchmaster/momento/internal/config"
	"github.com/Skotchmaster/momento/internal/events"
	"github.com/Skotchmaster/momento/internal/kv"
	"github.com/Skotchmaster/momento/internal/logging"
	"github.com/Skotchmaster/momento/internal/session"
	"github.com/Skotchmaster/momento/internal/storefront"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewWriter(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, logger)

	a, err := newApp(ctx, cfg, logger, os.Stdout)
	if err != nil {
		logger.Error("init", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	code := a.run(ctx, os.Args[1], os.Args[2:])
	a.close()
	os.Exit(code)
}

type app struct {
	shop     *storefront.Shop
	resolver *apiclient.Resolver
	store    kv.Store
	events   events.Publisher
	out      io.Writer
	log      *slog.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) (*app, error) {
	store, err := kv.Open(ctx, cfg.StoreDSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	sess := session.New(store)

	resolver, err := apiclient.NewResolver(ctx, store, apiclient.ResolverOptions{
		Origin:   cfg.Origin,
		Override: cfg.APIURL,
		Fallback: cfg.FallbackAPIURL,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	client := apiclient.NewClient(resolver, sess,
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		apiclient.WithLogger(logger),
	)

	var pub events.Publisher = events.Nop{}
	if cfg.EventsEnabled() {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopicPrefix)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		pub = kp
	}

	ui := &terminal{out: out}
	shop := storefront.New(storefront.Deps{
		API:      client,
		KV:       store,
		Session:  sess,
		Events:   pub,
		Nav:      ui,
		Notify:   ui,
		AdminURL: cfg.AdminURL,
		Log:      logger,
	})

	return &app{
		shop:     shop,
		resolver: resolver,
		store:    store,
		events:   pub,
		out:      out,
		log:      logger,
	}, nil
}

func (a *app) close() {
	if err := a.events.Close(); err != nil {
		a.log.Error("close events", "error", err)
	}
	if err := a.store.Close(); err != nil {
		a.log.Error("close store", "error", err)
	}
}

// terminal stands in for the browser: navigation and notices are printed.
type terminal struct {
	out io.Writer
}

func (t *terminal) Navigate(_ context.Context, target string) {
	fmt.Fprintf(t.out, "-> %s\n", target)
}

func (t *terminal) Notify(_ context.Context, msg string) {
	fmt.Fprintf(t.out, "* %s\n", msg)
}
