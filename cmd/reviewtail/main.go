// Command reviewtail tails the manual-review subject and prints incoming
// review requests, for operators watching a run.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/claritypay/merchant-underwriter/internal/config"
	natsqueue "github.com/claritypay/merchant-underwriter/internal/infrastructure/queue/nats"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue, err := natsqueue.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		log.Fatalf("connect review queue: %v", err)
	}
	defer queue.Close()

	log.Printf("tailing %s", cfg.NATSSubject)
	err = queue.SubscribeReviewRequested(ctx, func(_ context.Context, req natsqueue.ReviewRequest) error {
		fmt.Printf("run=%s merchant=%s country=%s tier=%s probability=%.3f\n",
			req.RunID, req.MerchantID, req.Country, req.RiskTier, req.RiskProbability)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("subscribe error: %v", err)
	}
}
