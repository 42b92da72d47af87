package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the bidtrack version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bidtrack %s\n", Version)
	},
}
