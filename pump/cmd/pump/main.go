// Command pump forwards a dump1090 aircraft.json file to a remote endpoint
// over a persistent connection.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
