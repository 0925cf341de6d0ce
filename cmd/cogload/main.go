// Command cogload runs the local-first cognitive-state inference daemon.
package main

import "cogload/internal/cli"

func main() {
	cli.Execute()
}
