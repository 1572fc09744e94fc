package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:               "ping",
	Short:             "Check connectivity and credentials for all configured servers",
	Args:              cobra.NoArgs,
	PersistentPreRunE: setupClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		// setupClient already connected and authenticated
		defer db.Close()
		fmt.Println("ok")
		return nil
	},
}
