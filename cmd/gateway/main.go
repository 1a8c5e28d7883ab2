package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"androidcontrol/adb"
	"androidcontrol/commandhub"
	"androidcontrol/config"
	"androidcontrol/gateway"
	"androidcontrol/logging"
	"androidcontrol/session"
	"androidcontrol/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(opts *serveOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.adbPath != "" {
		cfg.AdbPath = opts.adbPath
	}
	if opts.httpPort != 0 {
		cfg.HTTPPort = opts.httpPort
	}
	if opts.wsPort != 0 {
		cfg.WebSocketPort = opts.wsPort
	}

	log, closeLog, err := logging.New(opts.logDir)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closeLog()

	log.Info("starting androidcontrol gateway",
		zap.Int("httpPort", cfg.HTTPPort),
		zap.Int("webSocketPort", cfg.WebSocketPort),
		zap.String("nodeEnv", cfg.NodeEnv),
	)

	bus, err := adb.New(cfg.AdbPath, log)
	if err != nil {
		return fmt.Errorf("init adb: %w", err)
	}

	rot, err := store.Open(opts.dbPath, log)
	if err != nil {
		return fmt.Errorf("open rotation store: %w", err)
	}
	defer rot.Close()

	sessions := session.NewManager(bus, rot, log, opts.serverAsset)
	commands := commandhub.New(bus, sessions, rot, log, opts.harTraceBin)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := gateway.NewServer(commands, sessions, log)

	restRouter := gin.New()
	restRouter.Use(gin.Recovery())
	srv.RESTRoutes(restRouter)

	wsRouter := gin.New()
	wsRouter.Use(gin.Recovery())
	srv.WebSocketRoutes(wsRouter)

	errCh := make(chan error, 2)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		log.Info("REST listening", zap.String("addr", addr))
		errCh <- restRouter.Run(addr)
	}()
	go func() {
		addr := fmt.Sprintf(":%d", cfg.WebSocketPort)
		log.Info("WebSocket listening", zap.String("addr", addr))
		errCh <- wsRouter.Run(addr)
	}()

	return <-errCh
}
