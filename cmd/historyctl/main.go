// Command historyctl wipes the request history after an interactive confirmation.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	coreconfig "github.com/Rzhek/TelegramHotelsBot/core/config"
	coredatabase "github.com/Rzhek/TelegramHotelsBot/core/database"
	"github.com/Rzhek/TelegramHotelsBot/core/logger"
	"github.com/Rzhek/TelegramHotelsBot/internal/history"
	"github.com/Rzhek/TelegramHotelsBot/internal/hotels"
)

type config struct {
	Logging  coreconfig.LoggingConfig `yaml:"logging"`
	Database coredatabase.Config      `yaml:"database"`
}

func main() {
	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "config.yaml"
	}
	path := flag.String("config", defaultPath, "path to the YAML config")
	flag.Parse()

	var cfg config
	if err := coreconfig.LoadInto(*path, &cfg); err != nil {
		log.Fatal(err)
	}
	if err := logger.InitLogger(cfg.Logging); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Shutdown() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	code := run(ctx, os.Stdin, os.Stdout, func(ctx context.Context) error {
		st, err := history.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer st.Close()
		return st.Reset(ctx)
	})
	if code != 0 {
		_ = logger.Shutdown()
		os.Exit(code)
	}
}

// run asks for confirmation on in and calls reset only for an explicit "yes".
func run(ctx context.Context, in io.Reader, out io.Writer, reset func(context.Context) error) int {
	fmt.Fprint(out, "Do you want to clear the database? ")
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		fmt.Fprintf(out, "\nfailed to read answer: %v\n", err)
		return 1
	}
	if strings.ToLower(strings.TrimSpace(answer)) != "yes" {
		fmt.Fprintln(out, "Nothing changed.")
		return 0
	}

	err = reset(ctx)
	switch {
	case err == nil:
		fmt.Fprintln(out, "The history was cleared.")
		return 0
	case errors.Is(err, hotels.ErrStoreLocked):
		fmt.Fprintln(out, "The history is in use by the bot right now. Try again later.")
		return 2
	default:
		fmt.Fprintf(out, "Failed to clear the history: %v\n", err)
		return 1
	}
}
