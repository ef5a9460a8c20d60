package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/scratchdrop/internal/app"
)

const usage = `Usage: staff [-config config.toml] <command> <arg>

Commands:
  issue <email>   issue a dashboard token for a staff email
  revoke <token>  revoke a dashboard token`

type command func(ctx context.Context, tokens *app.TokenManager, arg string) error

var commands = map[string]command{
	"issue":  issue,
	"revoke": revoke,
}

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	handler, ok := commands[flag.Arg(0)]
	if !ok {
		flag.Usage()
		os.Exit(2)
	}

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}

	tokens, err := app.NewStaffTokens(config)
	if err != nil {
		logger.Error.Fatalf("Failed to open token store: %v", err)
	}
	defer tokens.Close()

	if err := handler(context.Background(), tokens, flag.Arg(1)); err != nil {
		logger.Error.Fatalf("Command error: %v", err)
	}
}

func issue(ctx context.Context, tokens *app.TokenManager, email string) error {
	token, err := tokens.IssueStaffToken(ctx, email)
	if err != nil {
		return err
	}
	logger.Info.Printf("Issued token for %s", token.Email)
	fmt.Println(token.Token)
	return nil
}

func revoke(ctx context.Context, tokens *app.TokenManager, token string) error {
	if err := tokens.RevokeStaffToken(ctx, token); err != nil {
		return err
	}
	logger.Info.Println("Token revoked")
	return nil
}
