package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/Kairi/ask/internal/chat"
	"github.com/Kairi/ask/internal/config"
	"github.com/Kairi/ask/internal/transport"
)

// Exit codes
const (
	exitOK          = 0
	exitFailure     = 1
	exitConfig      = 2
	exitTransport   = 3
	exitBadResponse = 4
)

func exitCode(err error) int {
	var cerr *config.Error
	var terr *transport.Error
	var ferr *chat.FormatError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &cerr):
		return exitConfig
	case errors.As(err, &terr):
		return exitTransport
	case errors.As(err, &ferr):
		return exitBadResponse
	default:
		return exitFailure
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := config.LoadDotEnv()
	if err == nil {
		err = newRootCmd(newApp()).ExecuteContext(ctx)
	}
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
