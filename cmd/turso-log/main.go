package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Kairi/ask/internal/config"
	"github.com/Kairi/ask/internal/logging"
	"github.com/Kairi/ask/internal/turso"
)

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer, env config.LookupFunc) *cobra.Command {
	var url string
	var verbosity int
	cmd := &cobra.Command{
		Use:           "turso-log [flags] [sql...]",
		Short:         "Execute SQL statements on a Turso pipeline endpoint",
		Long:          "Each argument is one statement. With no arguments, statements are read from stdin, one per line.",
		Version:       config.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			statements := args
			if len(statements) == 0 {
				var err error
				if statements, err = readStatements(stdin); err != nil {
					return err
				}
			}
			token, _ := env(config.EnvTursoKey)
			c, err := turso.NewClient(url, token, logging.New(stderr, "turso-log", verbosity))
			if err != nil {
				return err
			}
			out, err := c.Execute(cmd.Context(), statements)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(stdout, "%s\n", out)
			return err
		},
	}
	cmd.Flags().StringVar(&url, "url", config.DefaultAPIEndpoints().Turso, "pipeline endpoint")
	cmd.Flags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd
}

func readStatements(r io.Reader) ([]string, error) {
	var statements []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			statements = append(statements, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read statements: %w", err)
	}
	return statements, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := config.LoadDotEnv()
	if err == nil {
		err = newRootCmd(os.Stdin, os.Stdout, os.Stderr, os.LookupEnv).ExecuteContext(ctx)
	}
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
