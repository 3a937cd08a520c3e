// Command webostv-pair discovers or dials a single LG webOS TV, runs the
// pairing handshake, prints the client key it should be reused on
// future connections, and exercises a couple of commands so a caller
// can sanity-check connectivity end to end.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbocsi/webostv"
)

func main() {
	host := flag.String("host", "", "TV IP address or hostname (skips discovery)")
	secure := flag.Bool("secure", false, "use the secure (wss) endpoint")
	clientKey := flag.String("client-key", "", "previously issued client key, if any")
	discoverWindow := flag.Duration("discover-window", 3*time.Second, "how long to listen for SSDP responses")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *host, *secure, webostv.ClientKey(*clientKey), *discoverWindow); err != nil {
		slog.Error("pairing failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, host string, secure bool, clientKey webostv.ClientKey, discoverWindow time.Duration) error {
	if host == "" {
		slog.Info("no host given, discovering TVs on the local network", "window", discoverWindow)
		found, err := webostv.Discover(ctx, discoverWindow)
		if err != nil {
			return fmt.Errorf("discover: %w", err)
		}
		if len(found) == 0 {
			return fmt.Errorf("no TVs responded to SSDP discovery")
		}
		host = found[0].Host
		slog.Info("selected discovered TV", "host", host, "server", found[0].Server)
	}

	tv, err := webostv.Open(ctx, webostv.Endpoint{Host: host, Secure: secure}, webostv.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("open connection: %w", err)
	}
	defer tv.Close()

	events := tv.Register(ctx, webostv.DefaultManifest(), clientKey)
	for ev := range events {
		if ev.Err != nil {
			return fmt.Errorf("register: %w", ev.Err)
		}
		switch ev.Status {
		case webostv.Prompted:
			slog.Info("accept the pairing prompt on the TV screen")
		case webostv.Registered:
			slog.Info("registered", "client_key", string(ev.ClientKey))
		}
	}

	volume, err := tv.Media.GetVolume(ctx)
	if err != nil {
		return fmt.Errorf("get volume: %w", err)
	}
	slog.Info("current volume", "volume", volume)

	apps, err := tv.Application.ListApps(ctx)
	if err != nil {
		return fmt.Errorf("list apps: %w", err)
	}
	slog.Info("installed apps", "count", len(apps))

	return nil
}
