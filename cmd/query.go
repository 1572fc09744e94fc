package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chronostore/chrono-go/cmd/util"
)

var queryCmd = &cobra.Command{
	Use:               "query <query>",
	Short:             "Run a query against the cluster",
	Args:              cobra.ExactArgs(1),
	PersistentPreRunE: setupClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		defer db.Close()

		result, err := db.Query(args[0], viper.GetString("precision"), util.GetRequestTimeout())
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	queryCmd.Flags().String("precision", "", util.WrapString(
		"Time precision of the returned timestamps (e.g. s, ms, us, ns), empty uses the database default"))
}
