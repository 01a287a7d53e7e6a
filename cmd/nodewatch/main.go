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

	chclient "github.com/nodewatch/nodewatch/client"
	chshare "github.com/nodewatch/nodewatch/share"
	"github.com/nodewatch/nodewatch/share/vconfig"
)

var clientHelp = `
  Usage: nodewatch [options]

  Examples:

    ./nodewatch --server=example.com:9004
    samples memory and cpu usage every minute and reports it to the server

    ./nodewatch --server=example.com:9004 --interval=10s
    reports every 10 seconds

  Options:

    --server, -s, Address of the nodewatch server to report to, <host>:<port>.
    Required.

    --interval, -i, How often a measurement is taken. Defaults to 60s.

    --data-dir, An optional arg to define a local directory path to store
    internal data. By default, "/var/lib/nodewatch" is used.

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
	config   = &chclient.Config{}
)

func init() {
	pFlags := RootCmd.PersistentFlags()

	pFlags.StringP("server", "s", "", "")
	pFlags.DurationP("interval", "i", 0, "")
	pFlags.String("data-dir", chclient.DefaultDataDir, "")
	pFlags.StringP("log-file", "l", "", "")
	pFlags.StringP("verbose", "v", "", "")

	cfgPath = pFlags.StringP("config", "c", "", "")

	RootCmd.SetUsageFunc(func(*cobra.Command) error {
		fmt.Print(clientHelp)
		os.Exit(1)
		return nil
	})

	viperCfg = viper.New()
	viperCfg.SetConfigType("toml")

	viperCfg.SetDefault("logging.log_level", "error")

	// map config fields to CLI args
	_ = viperCfg.BindPFlag("client.server", pFlags.Lookup("server"))
	_ = viperCfg.BindPFlag("client.interval", pFlags.Lookup("interval"))
	_ = viperCfg.BindPFlag("client.data_dir", pFlags.Lookup("data-dir"))
	_ = viperCfg.BindPFlag("logging.log_file", pFlags.Lookup("log-file"))
	_ = viperCfg.BindPFlag("logging.log_level", pFlags.Lookup("verbose"))

	// map ENV variables
	_ = viperCfg.BindEnv("client.server", "NODEWATCH_SERVER")
	_ = viperCfg.BindEnv("client.data_dir", "NODEWATCH_DATA_DIR")
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
		viperCfg.SetConfigName("nodewatch.conf")
	}

	return vconfig.DecodeViperConfig(viperCfg, config)
}

func runMain(*cobra.Command, []string) {
	err := tryDecodeConfig()
	if err != nil {
		log.Fatal(err)
	}

	err = config.ParseAndValidate()
	if err != nil {
		log.Fatal(err)
	}

	err = config.Logging.LogOutput.Start()
	if err != nil {
		log.Fatal(err)
	}
	defer config.Logging.LogOutput.Shutdown()

	c, err := chclient.NewClient(config)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err = c.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
