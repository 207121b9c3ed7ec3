package main

import "github.com/ppiankov/compliancewatch/internal/cli"

func main() {
	cli.Execute()
}
