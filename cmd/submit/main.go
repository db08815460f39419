package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jrsteele09/go-token-relay/credentials"
	"github.com/jrsteele09/go-token-relay/submitter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const passwordEnvVar = "RELAY_PASSWORD"

var (
	relayURL  = flag.String("relay", submitter.DefaultRelayURL, "Relay base URL")
	username  = flag.String("username", "", "Account username")
	password  = flag.String("password", "", "Account password (falls back to $"+passwordEnvVar+")")
	userType  = flag.String("user-type", string(credentials.UserTypeStaff), "Account type: staff, student or parent")
	next      = flag.String("next", "", "Value sent as 'next' with the login request")
	token     = flag.String("token", "", "Store this token in the local page without logging in")
	showLogs  = flag.Bool("logs", false, "Print the relay's diagnostic log")
	clearLogs = flag.Bool("clear-logs", false, "Clear the relay's diagnostic log")
	verbose   = flag.Bool("v", false, "Verbose client logging")
)

func main() {
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx))
}

func run(ctx context.Context) int {
	client, err := submitter.NewClient(*relayURL, nil)
	if err != nil {
		log.Err(err).Msg("Invalid relay URL")
		return 2
	}

	switch {
	case *clearLogs:
		if _, err := client.ClearLogs(ctx); err != nil {
			log.Err(err).Msg("Failed to clear logs")
			return 1
		}
		fmt.Println("Logs cleared")
		return 0

	case *showLogs:
		reply, err := client.Logs(ctx)
		if err != nil {
			log.Err(err).Msg("Failed to read logs")
			return 1
		}
		fmt.Print(submitter.FormatLogs(reply.Logs))
		return 0

	case *token != "":
		result, err := client.StoreToken(ctx, *token)
		if err != nil {
			log.Err(err).Msg("Failed to store token")
			return 1
		}
		if !result.Success {
			fmt.Println("Error: " + result.Error)
			return 1
		}
		fmt.Println("Token stored.")
		return 0
	}

	pw := *password
	if pw == "" {
		pw = os.Getenv(passwordEnvVar)
	}
	if *username == "" {
		fmt.Fprintln(os.Stderr, "usage: submit -username NAME [-password PW] [-user-type staff|student|parent]")
		flag.PrintDefaults()
		return 2
	}

	creds := credentials.New(*username, pw, credentials.UserType(*userType), *next)
	result, err := client.Login(ctx, creds)
	if err != nil {
		log.Err(err).Msg("Login request failed")
		return 1
	}
	fmt.Println(submitter.StatusMessage(result))
	if !result.Success {
		return 1
	}
	return 0
}
