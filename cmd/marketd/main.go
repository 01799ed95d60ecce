// marketd CLI - Command-line interface for the marketd mock marketplace server
package main

import "github.com/marketd/marketd/pkg/cli"

func main() {
	cli.Execute()
}
