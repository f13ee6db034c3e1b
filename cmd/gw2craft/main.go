package main

import "github.com/feanru/gw2-v18-sub001/internal/adapters/cli"

func main() {
	cli.Execute()
}
