package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/stealthdriver/uc"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ucrun opens an undetectable browser session, navigates in CDP mode, and
// saves the resulting cookies. Useful as a smoke run against bot-protected
// sites.
func main() {
	url := flag.String("url", "https://signup.cloud.oracle.com/", "page to open in CDP mode")
	cookies := flag.String("cookies", "cookies.json", "path to save cookies to (empty = skip)")
	headless := flag.Bool("headless", false, "run the browser headless")
	settle := flag.Duration("settle", 2*time.Second, "wait after navigation before saving cookies")
	linger := flag.Duration("linger", 5*time.Second, "how long to keep the page open afterwards")
	flag.Parse()

	setupLogger()

	ctx := context.Background()
	err := uc.Run(ctx, uc.Options{
		UC:       true,
		Test:     true,
		Maximize: true,
		Headless: *headless,
	}, func(s *uc.Session) error {
		page, err := s.ActivateCDPMode(ctx, *url)
		if err != nil {
			return err
		}
		if err := page.Sleep(ctx, *settle); err != nil {
			return err
		}
		if *cookies != "" {
			if err := page.SaveCookies(ctx, *cookies); err != nil {
				return err
			}
			slog.Info("cookies saved", "path", *cookies)
		}
		return page.Sleep(ctx, *linger)
	})
	if err != nil {
		slog.Error("ucrun failed", "error", err)
		os.Exit(1)
	}
}

func setupLogger() {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		slog.Debug("log directory creation failed", "error", err)
	}

	logWriter := &lumberjack.Logger{
		Filename:   "logs/ucrun.log",
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(handler))
}
