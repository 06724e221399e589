package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "claimtrace"}

	root.AddCommand(serveCMD(), traceCMD())
	_ = root.Execute()
}
