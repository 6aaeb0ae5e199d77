package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the slotbooker application
var rootCmd = &cobra.Command{
	Use:   "slotbooker",
	Short: "Books online meetings in your Microsoft 365 or Google calendar",
	Long: `slotbooker lets a calendar owner book a meeting in their own calendar
with an online meeting link attached.

It can run as:
  - A small web page served to the owner (default)
  - A one-shot command that books a single meeting from the terminal`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "slotbooker version %s\n" .Version}}`)

	// If no subcommand is provided, serve the booking page by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newBookCmd())
	rootCmd.AddCommand(newVersionCmd())
}
