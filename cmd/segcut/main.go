package main

import "github.com/segcut/segcut/internal/cli"

func main() {
	cli.Main()
}
