package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chronostore/chrono-go/codec"
	"github.com/chronostore/chrono-go/common"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupClientFlags adds common cluster connection flags to a command
func SetupClientFlags(cmd *cobra.Command) {
	key := "servers"
	cmd.PersistentFlags().String(key, "localhost:9000", WrapString(
		"Comma-separated cluster servers as host:port[:weight[:backup]]. "+
			"Weight is a value between 1 and 9, backup servers are only used "+
			"when no other server is available"))

	key = "user"
	cmd.PersistentFlags().String(key, "", WrapString("Database user"))

	key = "password"
	cmd.PersistentFlags().String(key, "", WrapString("Password for the database user"))

	key = "database"
	cmd.PersistentFlags().String(key, "", WrapString("Name of the database"))

	key = "connect-timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("Connect timeout in seconds"))

	key = "timeout"
	cmd.PersistentFlags().Int(key, 3600, WrapString("Request timeout in seconds"))

	key = "inactive-time"
	cmd.PersistentFlags().Int(key, 30, WrapString(
		"How long a server stays marked unavailable after a transient failure (seconds)"))

	key = "max-wait-retry"
	cmd.PersistentFlags().Int(key, 90, WrapString("Ceiling of the reconnect backoff (seconds)"))

	key = "tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to disable Nagle's algorithm on the sockets"))

	key = "tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("TCP level keep-alive period in seconds (0 = disabled)"))
}

// InitClientConfig initializes configuration from environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("chrono")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() (*common.ClientConfig, error) {
	servers, err := ParseServers(viper.GetString("servers"))
	if err != nil {
		return nil, err
	}

	conf := &common.ClientConfig{
		Username:     viper.GetString("user"),
		Password:     viper.GetString("password"),
		Database:     viper.GetString("database"),
		Servers:      servers,
		InactiveTime: time.Duration(viper.GetInt("inactive-time")) * time.Second,
		MaxWaitRetry: time.Duration(viper.GetInt("max-wait-retry")) * time.Second,
		Socket: common.SocketConfig{
			TCPNoDelay:      viper.GetBool("tcp-nodelay"),
			TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
		},
	}

	return conf, nil
}

// GetCodec creates a payload codec based on configuration
func GetCodec() (codec.Codec, error) {
	switch viper.GetString("codec") {
	case "msgpack":
		return codec.NewMsgpackCodec(), nil
	case "json":
		return codec.NewJSONCodec(), nil
	default:
		return nil, fmt.Errorf("invalid codec %s", viper.GetString("codec"))
	}
}

// GetConnectTimeout reads the connect timeout flag
func GetConnectTimeout() time.Duration {
	return time.Duration(viper.GetInt("connect-timeout")) * time.Second
}

// GetRequestTimeout reads the request timeout flag
func GetRequestTimeout() time.Duration {
	return time.Duration(viper.GetInt("timeout")) * time.Second
}

// ParseServers parses the comma-separated server list flag. Each entry has
// the form host:port[:weight[:backup]].
func ParseServers(list string) ([]common.ServerConfig, error) {
	var servers []common.ServerConfig

	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 4 {
			return nil, fmt.Errorf("invalid server %q, expected host:port[:weight[:backup]]", entry)
		}

		port, err := strconv.ParseUint(parts[1], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid port in server %q: %v", entry, err)
		}

		server := common.ServerConfig{Host: parts[0], Port: uint16(port)}

		if len(parts) > 2 {
			weight, err := strconv.Atoi(parts[2])
			if err != nil {
				return nil, fmt.Errorf("invalid weight in server %q: %v", entry, err)
			}
			server.Weight = weight
		}

		if len(parts) > 3 {
			backup, err := strconv.ParseBool(parts[3])
			if err != nil {
				return nil, fmt.Errorf("invalid backup flag in server %q: %v", entry, err)
			}
			server.Backup = backup
		}

		servers = append(servers, server)
	}

	if len(servers) == 0 {
		return nil, fmt.Errorf("no servers provided")
	}

	return servers, nil
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
