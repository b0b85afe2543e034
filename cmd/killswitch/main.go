// killswitch - VPN kill switch for macOS pf
package main

import (
	"os"

	"github.com/user/killswitch/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
