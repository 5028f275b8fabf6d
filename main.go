package main

import "sitewatch/internal/cli"

func main() {
	cli.Execute()
}
