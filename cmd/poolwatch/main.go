package main

import "github.com/ogulcanaydogan/pool-watch/internal/cli"

func main() {
	cli.Execute()
}
