package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"stock_pulse/internal/config"
	"stock_pulse/internal/dashboard"
	"stock_pulse/internal/logger"
	"stock_pulse/internal/telegram"

	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Interactive console with background quote polling",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			rotator := logger.Setup(cfg.LogFile, cfg.MaxLogSizeMB, cfg.MaxLogBackups)
			if rotator != nil {
				defer rotator.Close()
			}

			d, err := buildDashboard(cfg)
			if err != nil {
				return err
			}
			return run(cfg, d, os.Stdin, os.Stdout)
		},
	}
}

func execCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <command> [args...]",
		Short: "Run a single dashboard command, e.g. exec /quote AAPL",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			d, err := buildDashboard(cfg)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*cfg.RequestTimeout+5*time.Second)
			defer cancel()

			fmt.Println(d.HandleCommand(ctx, commandLine(strings.Join(args, " "))))
			return d.Close()
		},
	}
}

// commandLine accepts console input with or without the leading slash.
func commandLine(line string) string {
	line = strings.TrimSpace(line)
	if line != "" && !strings.HasPrefix(line, "/") {
		line = "/" + line
	}
	return line
}

// run drives the dashboard until stdin closes, "quit" is typed or a
// termination signal arrives.
func run(cfg *config.Config, d *dashboard.Dashboard, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)
	go func() {
		select {
		case <-sig:
			log.Println("⚠️ Shutting Down: System signal received.")
			cancel()
		case <-ctx.Done():
		}
	}()

	if cfg.TelegramEnabled() {
		bot, err := telegram.NewBot(telegram.DefaultAPIURL, cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("Telegram disabled: %v", err)
		} else {
			go bot.Listen(ctx, d.HandleCommand)
		}
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Printf("Stock Pulse %s Initialized", cfg.Version)
	
	refresh := func() {
		rctx, rcancel := context.WithTimeout(ctx, cfg.RequestTimeout)
		defer rcancel()
		if err := d.Refresh(rctx); err != nil {
			log.Printf("Refresh incomplete: %v", err)
		}
	}
	refresh() // Run once immediately on start

	interval := cfg.QuoteTTL
	if interval <= 0 {
		interval = 15 * time.Second
	}
	log.Printf("Polling Interval: %s", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fmt.Fprintln(out, "Type /help for commands, quit to exit.")
	for {
		select {
		case <-ctx.Done():
			log.Println("🛑 Main loop stopping...")
			return d.Close()
		case <-ticker.C:
			refresh()
		case line, ok := <-lines:
			if !ok {
				return d.Close()
			}
			cmd := commandLine(line)
			switch cmd {
			case "":
				continue
			case "/quit", "/exit":
				return d.Close()
			}
			fmt.Fprintln(out, d.HandleCommand(ctx, cmd))
		}
	}
}
