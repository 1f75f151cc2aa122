package config

import (
	"flag"
	"os"
	"time"

	"github.com/prompta-dev/prompta-server/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-l int      lock wait timeout, milliseconds
//	-r int      write retry budget
//	-p int      default page size
//	-m int      max page size
//
// os.Args is first filtered to the flags handled here via flagx.FilterArgs,
// avoiding collisions with flags owned by other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-l", "-r", "-p", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	lockWaitTimeout := fs.Int("l", int(config.LockWaitTimeout.Milliseconds()), "lock wait timeout (in milliseconds)")
	writeRetryBudget := fs.Uint64("r", config.WriteRetryBudget, "write retry budget")

	fs.IntVar(&config.DefaultPageSize, "p", config.DefaultPageSize, "default page size")
	fs.IntVar(&config.MaxPageSize, "m", config.MaxPageSize, "max page size")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.LockWaitTimeout = time.Duration(*lockWaitTimeout) * time.Millisecond
	config.WriteRetryBudget = *writeRetryBudget
}
