package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lanikai/alohacam/internal/logging"
)

var (
	cfgFile     string
	flagVersion bool

	// Effective configuration, loaded before any subcommand runs.
	cfg daemonConfig

	v = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "alohacamd",
	Short: "Camera capture daemon",
	Long: `alohacamd records clips and stills from a V4L2 camera, with audio from
an ADTS stream, and can be driven remotely over a websocket.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = loadConfig(v, cfgFile); err != nil {
			return err
		}
		if cfg.LogLevel != "" {
			logging.Configure(cfg.LogLevel)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagVersion {
			version()
			return nil
		}
		return cmd.Help()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/alohacamd.yaml)")
	pf.Bool("simulate", false, "use a simulated phone camera instead of V4L2 devices")
	pf.String("log-level", "", `log levels, e.g. "info,session=debug"`)
	pf.String("dev-dir", "/dev", "directory holding video device nodes")
	pf.String("audio", "", "ADTS stream (file or FIFO) to record audio from")
	pf.String("output-dir", ".", "directory for recordings and photos")

	bind(pf, map[string]string{
		"simulate":         "simulate",
		"log_level":        "log-level",
		"devices.dev_dir":  "dev-dir",
		"devices.audio":    "audio",
		"output.directory": "output-dir",
	})

	rootCmd.Flags().BoolVarP(&flagVersion, "version", "v", false, "print version information and exit")

	defaultHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd == rootCmd {
			banner()
		}
		defaultHelp(cmd, args)
	})

	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(photoCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}
