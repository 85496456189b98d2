/*
Gramqd starts a gramq analysis server and begins listening for new connections.

Usage:

	gramqd [flags]
	gramqd [flags] -l [[ADDRESS]:PORT]

Once started, the server will listen for HTTP requests and respond to them
using REST protocol. By default, it will listen on localhost:8080. This can be
changed with the --listen/-l flag (or config via environment var). The flag
argument must be either a full address with port, such as "192.168.0.2:6001",
or just the port preceeded by a colon, such as ":6001".

If a JWT token secret is not given, one will be automatically generated. As a
consequence, in this mode of operation all tokens are rendered invalid as soon
as the server shuts down. This is suitable for testing, but must be given via
either CLI flags or environment variable if running in production.

The flags are:

	-v, --version
		Give the current version of the gramq server and then exit.

	-d, --debug
		Log at debug level, including the caller of each log line.

	-l, --listen LISTEN_ADDRESS
		Listen on the given address. Must be in BIND_ADDRESS:PORT or :PORT
		format. If not given, will default to the value of environment variable
		GRAMQ_LISTEN_ADDRESS, and if that is not given, will default to
		localhost:8080.

	-s, --secret TOKEN_SECRET
		Use the provided secret for signing JWT tokens. If there are less than
		32 bytes in the secret, it will be repeated until it is. The maximum
		size is 64 bytes. If not given, will default to the value of environment
		variable GRAMQ_TOKEN_SECRET. If no secret is specified or an empty
		secret is given, a random secret will be automatically generated.

	--db DRIVER[:PARAMS]
		Use the given DB connection string. DRIVER must be one of the following:
		inmem, sqlite. inmem has no further params. sqlite needs the path to the
		data directory such as sqlite:path/to/db_dir. If not given, will default
		to the value of environment variable GRAMQ_DATABASE. If neither is set,
		an in-memory database is used.

	--max-k K
		Reject table, recognition, and cross-check requests with a lookahead
		wider than K. Defaults to 4.

	--max-count N
		Reject corpus requests for more than N words. Defaults to 1000.

	--max-word-len N
		Reject words longer than N terminals, and cap generated words to N
		when a corpus request gives no max length. Defaults to 256.
*/
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dekarrin/gramq/internal/logger"
	"github.com/dekarrin/gramq/internal/version"
	"github.com/dekarrin/gramq/server"
	"github.com/dekarrin/gramq/server/dao"
	"github.com/dekarrin/gramq/server/serr"
	"github.com/spf13/pflag"
)

const (
	EnvListen = "GRAMQ_LISTEN_ADDRESS"
	EnvSecret = "GRAMQ_TOKEN_SECRET"
	EnvDB     = "GRAMQ_DATABASE"
)

const (
	ExitSuccess = iota
	ExitUsageError
	ExitInitError
)

var (
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of the gramq server and then exit.")
	flagDebug   = pflag.BoolP("debug", "d", false, "Log at debug level.")
	flagListen  = pflag.StringP("listen", "l", "", "Listen on the given address.")
	flagSecret  = pflag.StringP("secret", "s", "", "Use the given secret for token generation.")
	flagDB      = pflag.String("db", "", "Use the given DB connection string.")
	flagMaxK    = pflag.Int("max-k", 0, "Largest lookahead a request may ask for.")
	flagMaxN    = pflag.Int("max-count", 0, "Most words a generated corpus may hold.")
	flagMaxLen  = pflag.Int("max-word-len", 0, "Longest word in terminals a request may use or generate.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s (gramq v%s)\n", version.ServerCurrent, version.Current)
		return
	}

	logger.Init(*flagDebug, false)
	if !*flagDebug {
		log.SetLevel(log.InfoLevel)
	}

	if len(pflag.Args()) > 0 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		os.Exit(ExitUsageError)
	}

	addr, port, err := parseListen(envOrFlag(EnvListen, "listen", *flagListen))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\nDo -h for help.\n", err)
		os.Exit(ExitUsageError)
	}

	cfg := server.Config{
		MaxLookahead: *flagMaxK,
		MaxFuzzCount: *flagMaxN,
		MaxWordLen:   *flagMaxLen,
	}
	if cfg.MaxLookahead < 0 || cfg.MaxFuzzCount < 0 || cfg.MaxWordLen < 0 {
		fmt.Fprintf(os.Stderr, "request limits cannot be negative\nDo -h for help.\n")
		os.Exit(ExitUsageError)
	}

	if connStr := envOrFlag(EnvDB, "db", *flagDB); connStr != "" {
		cfg.DB, err = server.ParseDBConnString(connStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\nDo -h for help.\n", err)
			os.Exit(ExitUsageError)
		}
	}

	cfg.TokenSecret, err = tokenSecret(envOrFlag(EnvSecret, "secret", *flagSecret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\nDo -h for help.\n", err)
		os.Exit(ExitUsageError)
	}

	gs, err := server.New(cfg)
	if err != nil {
		log.Error("could not start server", "err", err)
		os.Exit(ExitInitError)
	}
	defer gs.Close()
	log.Debug("server initialized")

	// immediately create the admin user so we have someone we can log in as.
	_, err = gs.Service().CreateUser(context.Background(), "admin", "password", "", dao.Admin)
	if err != nil && !errors.Is(err, serr.ErrAlreadyExists) {
		log.Error("could not create initial admin user", "err", err)
		os.Exit(ExitInitError)
	}
	if err == nil {
		log.Info("Added initial admin user with password 'password'")
	}

	log.Info("Starting gramq server", "version", version.ServerCurrent)
	gs.ServeForever(addr, port)
}

// envOrFlag gives the value of the named flag if it was set on the command
// line, and otherwise the value of the environment variable.
func envOrFlag(env, flagName, flagVal string) string {
	if pflag.Lookup(flagName).Changed {
		return flagVal
	}
	return os.Getenv(env)
}

func parseListen(listenAddr string) (addr string, port int, err error) {
	if listenAddr == "" {
		return "", 0, nil
	}

	bindParts := strings.SplitN(listenAddr, ":", 2)
	if len(bindParts) != 2 {
		return "", 0, fmt.Errorf("listen address is not in ADDRESS:PORT or :PORT format")
	}

	port, err = strconv.Atoi(bindParts[1])
	if err != nil {
		return "", 0, fmt.Errorf("%q is not a valid port number", bindParts[1])
	}
	return bindParts[0], port, nil
}

// tokenSecret pads a given secret up to server.MinSecretSize by repeating it,
// or generates a random one of server.MaxSecretSize bytes if s is empty.
func tokenSecret(s string) ([]byte, error) {
	if s == "" {
		secret := make([]byte, server.MaxSecretSize)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("could not generate token secret: %w", err)
		}

		// yell at the user bc they should know their secret might be bad
		log.Warn("Using generated token secret; all tokens issued will become invalid at shutdown")
		return secret, nil
	}

	secret := []byte(s)
	for len(secret) < server.MinSecretSize {
		secret = append(secret, secret...)
	}

	if len(secret) > server.MaxSecretSize {
		// keys would be chopped at 64, so rather than the user thinking they
		// have more security by giving a longer key, refuse to start.
		return nil, fmt.Errorf("token secret is %d bytes, but it must be <= %d bytes", len(secret), server.MaxSecretSize)
	}

	return secret, nil
}
