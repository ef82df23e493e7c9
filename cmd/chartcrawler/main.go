// Package main is the entry point for the chartcrawler executable.
package main

import "github.com/dayone-labs/kchart-crawler/cmd"

func main() {
	cmd.Execute()
}
