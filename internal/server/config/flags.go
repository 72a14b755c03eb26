package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g., ":8080")
//	-g string     gRPC bind address (e.g., ":50051")
//	-store string credential store backend
//	-d string     PostgreSQL DSN or SQLite file
//	-bolt string  bbolt file path
//	-mongo string MongoDB URI
//	-redis string Redis host
//	-s string     JWT HMAC secret key
//	-t duration   token validity (e.g., "2h")
//	-l string     log level
//
// Only the flags listed here are picked out of args, so the JSON config
// flags and anything else on the command line are ignored.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-store", "-d", "-bolt", "-mongo", "-redis", "-s", "-t", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port to run server")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port to run server")
	fs.StringVar(&config.StoreBackend, "store", config.StoreBackend, "credential store backend")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.BoltPath, "bolt", config.BoltPath, "bbolt database path")
	fs.StringVar(&config.MongoURI, "mongo", config.MongoURI, "MongoDB URI")
	fs.StringVar(&config.RedisHost, "redis", config.RedisHost, "Redis host")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.TokenValidityDuration, "t", config.TokenValidityDuration, "token validity duration")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	return fs.Parse(args)
}
