// Command stranger-watch signs in, goes online and prints the online list
// every time it changes. SIGINT or SIGTERM takes the user offline.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/aussiebroadwan/stranger/pkg/presence"
	"github.com/aussiebroadwan/stranger/pkg/presence/wsclient"
	"github.com/aussiebroadwan/stranger/pkg/slogx"
	"github.com/aussiebroadwan/stranger/pkg/strangersdk"
)

const exitUnverified = 2

func main() {
	_ = godotenv.Load()

	logger := slogx.New(slogx.Config{
		Service: "stranger-watch",
		Env:     getEnvOrDefault("ENV", "dev"),
		Level:   getEnvOrDefault("LOG_LEVEL", "warn"),
		Format:  getEnvOrDefault("LOG_FORMAT", "text"),
		Output:  os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		if errors.Is(err, presence.ErrVerificationRequired) {
			fmt.Fprintln(os.Stderr, "Your email address is not verified yet. Enter the code we emailed you, then sign in again.")
			os.Exit(exitUnverified)
		}
		fmt.Fprintln(os.Stderr, "stranger-watch:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	email := os.Getenv("STRANGER_EMAIL")
	password := os.Getenv("STRANGER_PASSWORD")
	if email == "" || password == "" {
		return errors.New("STRANGER_EMAIL and STRANGER_PASSWORD must be set")
	}

	client := strangersdk.NewClient(getEnvOrDefault("STRANGER_URL", "http://localhost:8080"))
	sess, err := client.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer sess.Close()

	id, err := sess.Identity(ctx)
	if err != nil {
		return fmt.Errorf("identity: %w", err)
	}

	backend := wsclient.New(wsclient.Config{
		URL:    sess.RealtimeURL(),
		Token:  sess.Token,
		Logger: logger,
	})
	defer backend.Close()

	gate := presence.Gate{
		Tracker:  &presence.Tracker{Backend: backend, Logger: logger},
		Profiles: sess.Profiles(),
		Logger:   logger,
	}
	ps, err := gate.Enter(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("online as %s\n", ps.Username())

	for {
		select {
		case names, ok := <-ps.Updates():
			if !ok {
				return nil
			}
			fmt.Printf("%s  %d online: %s\n", time.Now().Format(time.TimeOnly), len(names), strings.Join(names, ", "))
		case <-ctx.Done():
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			ps.Stop(stopCtx)
			cancel()
			fmt.Println("offline")
			return nil
		}
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
