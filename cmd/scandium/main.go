package main

import "scandium/internal/cli"

func main() {
	cli.Execute()
}
