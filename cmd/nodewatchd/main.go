package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	chserver "github.com/nodewatch/nodewatch/server"
	chshare "github.com/nodewatch/nodewatch/share"
	"github.com/nodewatch/nodewatch/share/vconfig"
)

var serverHelp = `
  Usage: nodewatchd [options]

  Examples:

    ./nodewatchd --addr=0.0.0.0:9004
    starts the server, listening for agent connections on port 9004

    ./nodewatchd --addr=0.0.0.0:9004 --api-addr=0.0.0.0:9005
    additionally serves the HTTP query API at http://0.0.0.0:9005/

  Options:

    --addr, -a, Defines the IP address and port the TCP ingestion listener
    binds to. Defaults to 0.0.0.0:9004.

    --api-addr, Defines the IP address and port the HTTP query API listens on,
    e.g. "0.0.0.0:9005". Empty disables the API.

    --db, Path to the sqlite3 database file. Defaults to "nodewatch.db".

    --retention, How long stored measurements are kept before the periodic
    cleanup deletes them, e.g. "720h". Defaults to 30 days.

    --log-file, -l, Specifies log file path, or "stdout", "stderr".

    --verbose, -v, Specifies log level. Values: "error", "info", "debug".
    Defaults to "error".

    --config, -c, An optional arg to define a path to a config file. If it is
    set then argument values are applied after reading the config file.

    --help, This help text

    --version, Print version info and exit
`

var (
	RootCmd = &cobra.Command{
		Version: chshare.BuildVersion,
		Run:     runMain,
	}

	cfgPath  *string
	viperCfg *viper.Viper
	cfg      = &chserver.Config{}
)

func init() {
	pFlags := RootCmd.PersistentFlags()

	pFlags.StringP("addr", "a", "", "")
	pFlags.String("api-addr", "", "")
	pFlags.String("db", "", "")
	pFlags.Duration("retention", 0, "")
	pFlags.StringP("log-file", "l", "", "")
	pFlags.StringP("verbose", "v", "", "")

	cfgPath = pFlags.StringP("config", "c", "", "")

	RootCmd.SetUsageFunc(func(*cobra.Command) error {
		fmt.Print(serverHelp)
		os.Exit(1)
		return nil
	})

	viperCfg = viper.New()
	viperCfg.SetConfigType("toml")

	viperCfg.SetDefault("logging.log_level", "error")
	viperCfg.SetDefault("server.address", chserver.DefaultListenAddress)

	// map config fields to CLI args
	_ = viperCfg.BindPFlag("server.address", pFlags.Lookup("addr"))
	_ = viperCfg.BindPFlag("api.address", pFlags.Lookup("api-addr"))
	_ = viperCfg.BindPFlag("database.path", pFlags.Lookup("db"))
	_ = viperCfg.BindPFlag("monitoring.retention", pFlags.Lookup("retention"))
	_ = viperCfg.BindPFlag("logging.log_file", pFlags.Lookup("log-file"))
	_ = viperCfg.BindPFlag("logging.log_level", pFlags.Lookup("verbose"))

	// map ENV variables
	_ = viperCfg.BindEnv("server.address", "NODEWATCH_ADDR")
	_ = viperCfg.BindEnv("api.address", "NODEWATCH_API_ADDR")
	_ = viperCfg.BindEnv("database.path", "NODEWATCH_DB")
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func tryDecodeConfig() error {
	if *cfgPath != "" {
		viperCfg.SetConfigFile(*cfgPath)
	} else {
		viperCfg.AddConfigPath(".")
		viperCfg.SetConfigName("nodewatchd.conf")
	}

	return vconfig.DecodeViperConfig(viperCfg, cfg)
}

func runMain(*cobra.Command, []string) {
	err := tryDecodeConfig()
	if err != nil {
		log.Fatal(err)
	}

	err = cfg.ParseAndValidate()
	if err != nil {
		log.Fatal(err)
	}

	err = cfg.Logging.LogOutput.Start()
	if err != nil {
		log.Fatal(err)
	}
	defer cfg.Logging.LogOutput.Shutdown()

	s, err := chserver.NewServer(cfg)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err = s.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
