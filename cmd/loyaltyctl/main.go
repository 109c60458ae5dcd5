// Command loyaltyctl drives the dashboard engine from the terminal: it
// signs in against a gateway, records an earn or a redeem, and pages
// through the transaction history, printing store snapshots and queued
// notifications along the way.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/PointDesk/loyalty_client/internal/app"
	domainloyalty "github.com/PointDesk/loyalty_client/internal/app/domain/loyalty"
	domainsession "github.com/PointDesk/loyalty_client/internal/app/domain/session"
	"github.com/PointDesk/loyalty_client/internal/app/gateway"
	"github.com/PointDesk/loyalty_client/internal/app/metrics"
	"github.com/PointDesk/loyalty_client/internal/app/orchestrator"
	"github.com/PointDesk/loyalty_client/internal/config"
	"github.com/PointDesk/loyalty_client/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to engine.yaml")
	gatewayURL := flag.String("gateway", "", "gateway base URL override")
	phone := flag.String("phone", "", "phone number to sign in with")
	email := flag.String("email", "", "email to sign in with")
	password := flag.String("password", "", "password")
	name := flag.String("name", "", "register a new account under this name")
	earn := flag.Int64("earn", 0, "record an earn of this amount (minor currency units)")
	redeem := flag.Int64("redeem", 0, "redeem this many points")
	metricsAddr := flag.String("metrics-addr", "", "expose Prometheus metrics on this address")
	flag.Parse()

	if v := os.Getenv("GATEWAY_BASE_URL"); v != "" && *gatewayURL == "" {
		*gatewayURL = v
	}

	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.LoadFromPath(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrDefault()
	}
	if *gatewayURL != "" {
		cfg.Gateway.BaseURL = *gatewayURL
	}
	cfg.Refresh.Enabled = false // one-shot runs have no use for polling

	log := logger.New("loyaltyctl", cfg.Logging.Level, os.Stderr)

	engine, err := app.New(cfg, nil, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wiring: %v\n", err)
		os.Exit(1)
	}

	if *metricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(*metricsAddr, metrics.Handler()); err != nil {
				log.WithError(err).Warn("metrics listener stopped")
			}
		}()
	}

	ctx := context.Background()
	orch := engine.Orchestrator

	var auth *orchestrator.Ticket
	if *name != "" {
		auth = orch.Register(ctx, domainsession.Registration{
			Name:        *name,
			Email:       *email,
			PhoneNumber: *phone,
			Password:    *password,
		})
	} else {
		auth = orch.Login(ctx, domainsession.Credentials{
			Email:       *email,
			PhoneNumber: *phone,
			Password:    *password,
		})
	}
	<-auth.Done()
	drainNotifications(engine)

	snap := engine.Sessions.Snapshot()
	if !snap.Authenticated {
		fmt.Fprintf(os.Stderr, "sign-in failed: %s\n", snap.Error)
		os.Exit(1)
	}
	fmt.Printf("signed in as %s (%s)\n", snap.User.Name, snap.User.Contact)

	<-orch.FetchRewardTier(ctx).Done()
	ledger := engine.Ledger.Snapshot()
	fmt.Printf("balance: %d points", ledger.Balance)
	if ledger.RewardTier != nil {
		fmt.Printf("  tier: %s (%.0f%% off)", ledger.RewardTier.RewardTierID, ledger.RewardTier.DiscountPercentage)
	}
	fmt.Println()

	if *earn > 0 {
		<-orch.EarnPoints(ctx, gateway.EarnRequest{Amount: *earn, Description: "loyaltyctl earn"}).Done()
		drainNotifications(engine)
	}
	if *redeem > 0 {
		req := gateway.RedeemRequest{Points: *redeem, Description: "loyaltyctl redeem"}
		if ledger.RewardTier != nil {
			req.RewardTierID = ledger.RewardTier.RewardTierID
		}
		<-orch.RedeemPoints(ctx, req).Done()
		drainNotifications(engine)
	}

	<-orch.FetchHistory(ctx, orchestrator.HistoryRequest{Reset: true}).Done()
	for {
		ledger = engine.Ledger.Snapshot()
		if ledger.Error != "" {
			fmt.Fprintf(os.Stderr, "history: %s\n", ledger.Error)
			break
		}
		if !ledger.HasMore {
			break
		}
		<-orch.FetchHistory(ctx, orchestrator.HistoryRequest{Cursor: ledger.Cursor}).Done()
	}

	fmt.Printf("history (%d transactions):\n", len(ledger.Transactions))
	for _, tx := range ledger.Transactions {
		sign := "+"
		if tx.Type == domainloyalty.TypeRedeem {
			sign = "-"
		}
		fmt.Printf("  %s  %s%d  %-10s  %s\n", tx.Timestamp.Format("2006-01-02 15:04"), sign, tx.Points, tx.Status, tx.Description)
	}

	ledger = engine.Ledger.Snapshot()
	fmt.Printf("final balance: %d points\n", ledger.Balance)
}

// drainNotifications prints and dismisses everything queued, oldest first.
func drainNotifications(engine *app.Application) {
	for {
		n, ok := engine.Notices.Active()
		if !ok {
			return
		}
		fmt.Printf("[%s] %s\n", n.Severity, n.Message)
		engine.Notices.Dismiss(n.ID)
	}
}
