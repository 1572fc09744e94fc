package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chronostore/chrono-go/client"
	"github.com/chronostore/chrono-go/cmd/util"
	"github.com/chronostore/chrono-go/common"
)

const (
	Version = "1.0.0"
)

var (
	// db is the pool client shared by all subcommands
	db *client.Client

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "chrono",
		Short: "ChronoDB cluster client",
		Long: fmt.Sprintf(`chrono (v%s)

A command line client for ChronoDB clusters. Maintains authenticated
connections to all configured servers and balances queries and inserts
across them by weight.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of chrono",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("chrono v%s\n", Version)
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common cluster flags to the root command
	util.SetupClientFlags(RootCmd)

	// Add Flags
	key := "codec"
	RootCmd.PersistentFlags().String(key, "msgpack", util.WrapString("payload codec to use (msgpack, json)"))
	key = "log-level"
	RootCmd.PersistentFlags().String(key, "info", util.WrapString("log level (debug, info, warn, error)"))

	// Add Commands
	RootCmd.AddCommand(queryCmd)
	RootCmd.AddCommand(insertCmd)
	RootCmd.AddCommand(pingCmd)
	RootCmd.AddCommand(versionCmd)
}

// setupClient builds the pool client and connects to the cluster, shared as
// PersistentPreRunE by all commands that talk to the database
func setupClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	common.InitLoggers(viper.GetString("log-level"))

	conf, err := util.GetClientConfig()
	if err != nil {
		return err
	}

	c, err := util.GetCodec()
	if err != nil {
		return err
	}

	db, err = client.New(*conf, client.WithCodec(c))
	if err != nil {
		return err
	}

	return db.Connect(util.GetConnectTimeout())
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
