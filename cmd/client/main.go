// Command client submits a withdrawal from the terminal. It drives the
// same request machine a UI would: in-flight state is persisted to the
// snapshot slot, so rerunning after a network failure retries with the
// original idempotency key instead of creating a duplicate.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/vaultpay/withdrawal-service/internal/client"
	"github.com/vaultpay/withdrawal-service/internal/config"
	"github.com/vaultpay/withdrawal-service/pkg/logger"
	"go.uber.org/zap"
)

func newStderrLogger() logger.Logger {
	return logger.NewWithZap(zap.Must(zap.NewDevelopment()))
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Snapshot slot defaults come from the environment.
	var snapCfg config.Snapshot
	if err := cleanenv.ReadEnv(&snapCfg); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	var (
		serverURL   = flag.String("server", "http://127.0.0.1:8080", "withdrawal service base URL")
		amount      = flag.Float64("amount", 0, "withdrawal amount")
		destination = flag.String("destination", "", "withdrawal destination")
		refresh     = flag.Bool("refresh", false, "re-query the last withdrawal instead of submitting")
		snapshot    = flag.String("snapshot", snapCfg.Path, "snapshot slot path")
		ttl         = flag.Duration("ttl", snapCfg.TTL, "resumable snapshot TTL")
		timeout     = flag.Duration("timeout", 10*time.Second, "request timeout")
	)
	flag.Parse()

	api := client.NewHTTPClient(*serverURL, *timeout)
	store := client.NewFileSnapshotStore(*snapshot)

	machine, err := client.NewRequestMachine(api, store, *ttl, newStderrLogger())
	if err != nil {
		return err
	}
	machine.Restore()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *refresh {
		if err = machine.RefreshStatus(ctx); err != nil {
			return fmt.Errorf("refresh status: %w", err)
		}
		return report(machine)
	}

	if key := machine.LastIdempotencyKey(); key != "" {
		fmt.Fprintf(os.Stderr, "resuming previous attempt with key %s\n", key)
	} else {
		machine.SetForm(client.Form{
			Amount:      *amount,
			Destination: *destination,
			Confirm:     true,
		})
	}

	if err = machine.Submit(ctx); err != nil {
		if machine.ErrorKind() == client.ErrorNetwork {
			return fmt.Errorf("%w (rerun to retry with the same key)", err)
		}
		return err
	}

	return report(machine)
}

func report(machine *client.RequestMachine) error {
	withdrawal := machine.LastWithdrawal()
	if withdrawal == nil {
		return errors.New("no withdrawal on record")
	}

	fmt.Printf("id:          %s\n", withdrawal.ID)
	fmt.Printf("amount:      %g\n", withdrawal.Amount)
	fmt.Printf("destination: %s\n", withdrawal.Destination)
	fmt.Printf("status:      %s\n", withdrawal.Status)
	fmt.Printf("createdAt:   %s\n", withdrawal.CreatedAt.Format(time.RFC3339))

	return nil
}
