// Command personquery lists and looks up active persons of a person table.
//
// Configuration is read from PERSONSTORE_ prefixed environment variables and optional .env files.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
