package main

import "github.com/actionsum/activetime/internal/cli"

func main() {
	cli.Execute()
}
