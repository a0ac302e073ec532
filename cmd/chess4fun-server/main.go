package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/qnkhuat/chess4fun/pkg"
	"github.com/qnkhuat/chess4fun/pkg/config"
)

func main() {
	logPath := flag.String("log", "", "path to log file (default <root>/server.log)")
	rootPath := flag.String("root", "", "data directory (default ~/"+config.DataDirName+")")
	flag.Parse()

	root, err := config.DataRoot(*rootPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *logPath == "" {
		*logPath = filepath.Join(root, "server.log")
	}
	log, err := pkg.InitLog(*logPath, "server")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.ParseServerConfig(root)
	if err != nil {
		log.Fatalw("bad server config", "err", err)
	}
	s, err := pkg.NewServer(cfg, log)
	if err != nil {
		log.Fatalw("failed to create server", "err", err)
	}

	// Wait for teminate signal
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			log.Warnw("shutdown", "err", err)
		}
	}()

	if err := s.ListenAndServe(); err != nil {
		log.Fatalw("server stopped", "err", err)
	}
	log.Info("server stopped")
}
