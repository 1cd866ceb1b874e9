package main

import "github.com/sourcelens/semcode/internal/cli"

func main() {
	cli.Execute()
}
