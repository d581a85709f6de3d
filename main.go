package main

import "recruitflow/internal/cli"

func main() {
	cli.Execute()
}
