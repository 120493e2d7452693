package main

import (
	. "github.com/streamingfast/cli"
	"github.com/streamingfast/logging"
	"go.uber.org/zap"
)

var zlog, _ = logging.PackageLogger("tapctl", "github.com/semiotic-ai/tap-core/cmd/tapctl")
var version = "dev"

func init() {
	logging.InstantiateLoggers(logging.WithDefaultLevel(zap.ErrorLevel))
}

func main() {
	Run(
		"tapctl",
		"TAP core protocol CLI",
		ConfigureVersion(version),
		OnCommandErrorLogAndExit(zlog),

		keygenCmd,
		signReceiptCmd,
		demoCmd,
	)
}
