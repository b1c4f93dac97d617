// Command replay runs a recorded NMEA log through a tracking session and
// reports the route and the billboards it passed.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
