package main

import "go-fwpm/internal/cli"

func main() {
	cli.Execute()
}
