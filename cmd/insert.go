package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/chronostore/chrono-go/cmd/util"
)

var insertCmd = &cobra.Command{
	Use:   "insert [data]",
	Short: "Insert time-series data into the cluster",
	Long: `Insert time-series data into the cluster.

The data is given as a JSON document mapping series names to arrays of
[timestamp, value] pairs, either as an argument or on stdin.`,
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: setupClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		defer db.Close()

		var raw []byte
		if len(args) == 1 {
			raw = []byte(args[0])
		} else {
			var err error
			if raw, err = io.ReadAll(os.Stdin); err != nil {
				return err
			}
		}

		var data any
		if err := json.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("invalid insert data: %v", err)
		}

		result, err := db.Insert(data, util.GetRequestTimeout())
		if err != nil {
			return err
		}

		out, err := json.Marshal(result)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}
