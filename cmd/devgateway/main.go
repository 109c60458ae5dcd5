// Command devgateway runs the in-memory loyalty API used for local
// development of the dashboard engine.
package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/PointDesk/loyalty_client/internal/devgateway"
	"github.com/PointDesk/loyalty_client/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	addr := flag.String("addr", ":8080", "listen address")
	secret := flag.String("secret", "", "JWT signing secret")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "issued token lifetime")
	pageSize := flag.Int("page-size", 10, "history page size")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	if v := os.Getenv("DEVGATEWAY_ADDR"); v != "" {
		*addr = v
	}
	if v := os.Getenv("DEVGATEWAY_SECRET"); v != "" {
		*secret = v
	}

	log := logger.New("devgateway", *logLevel, os.Stderr)

	srv := devgateway.New(devgateway.Config{
		Secret:   *secret,
		TokenTTL: *tokenTTL,
		PageSize: *pageSize,
	}, log)

	log.WithField("addr", *addr).Info("dev gateway listening")
	if err := http.ListenAndServe(*addr, srv.Router()); err != nil {
		log.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}
