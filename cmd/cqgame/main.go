package main

import "github.com/mcoot/conquestgame-go/internal/cli"

func main() {
	cli.Execute()
}
