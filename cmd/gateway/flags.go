package main

import (
	"github.com/spf13/cobra"
)

// serveOptions collects the flags that override config.Config's
// environment defaults, grounded on the pack's cobra command style
// (flags seeded from getDefaultServeOptionString-equivalent defaults,
// overridable at the CLI).
type serveOptions struct {
	logDir      string
	dbPath      string
	serverAsset string
	harTraceBin string
	adbPath     string
	httpPort    int
	wsPort      int
}

func newServeOptions() *serveOptions {
	return &serveOptions{
		logDir:      "log",
		dbPath:      "data/androidcontrol.db",
		serverAsset: "assets/androidcontrol-server.jar",
		harTraceBin: "",
	}
}

func newServeCmd() *cobra.Command {
	opts := newServeOptions()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Android screen/audio streaming and control gateway.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().StringVar(&opts.logDir, "log-dir", opts.logDir, "directory for structured log files")
	cmd.Flags().StringVar(&opts.dbPath, "db-path", opts.dbPath, "sqlite file backing the rotation-state cache")
	cmd.Flags().StringVar(&opts.serverAsset, "server-asset", opts.serverAsset, "local path of the streaming server jar pushed to devices")
	cmd.Flags().StringVar(&opts.harTraceBin, "har-trace-bin", opts.harTraceBin, "external HAR collector binary invoked by startHarTrace")
	cmd.Flags().StringVar(&opts.adbPath, "adb-path", "", "override ADB_PATH from the environment")
	cmd.Flags().IntVar(&opts.httpPort, "http-port", 0, "override HTTP_PORT from the environment")
	cmd.Flags().IntVar(&opts.wsPort, "ws-port", 0, "override WEBSOCKET_PORT from the environment")

	return cmd
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gateway",
		Short: "androidcontrol gateway",
	}
	root.AddCommand(newServeCmd())
	return root
}
