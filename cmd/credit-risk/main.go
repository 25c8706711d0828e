package main

import "github.com/miradorstack/credit-risk/internal/cli"

func main() {
	cli.Execute()
}
