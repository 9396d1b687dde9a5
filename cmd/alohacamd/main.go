// Command alohacamd exposes a camera session on a Linux host: one-shot photo
// and clip capture from the command line, or remote control over a websocket.
package main

import (
	"fmt"
	"os"

	"github.com/lanikai/alohacam/internal/logging"
)

var log = logging.DefaultLogger.WithTag("alohacamd")

// Populated via -ldflags="-X ...". See Makefile.
var GitRevisionId string
var GitTag string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
