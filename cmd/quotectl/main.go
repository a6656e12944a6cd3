// Package main is the entry point for quotectl, the offline quote collection tool.
package main

import "github.com/jsamuelsen/quotesync/cmd/quotectl/cmd"

func main() {
	cmd.Execute()
}
