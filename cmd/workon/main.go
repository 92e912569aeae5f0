package main

import "github.com/workon-sh/workon/internal/cli"

func main() {
	cli.Execute()
}
