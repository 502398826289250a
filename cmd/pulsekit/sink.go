package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"github.com/pulsekit-dev/pulsekit/pkg/tracker"
)

func newSinkCmd() *cobra.Command {
	var (
		addr      string
		withTrace bool
	)

	cmd := &cobra.Command{
		Use:   "sink",
		Short: "Run a local collection endpoint for development",
		Long: `Sink accepts delivery payloads on POST /v1/events, logs a summary of
each batch, and exposes its own metrics on /metrics. It is a development
aid, not a production collector.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSink(cmd.Context(), addr, withTrace)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&withTrace, "trace", false, "print otel spans to stdout")
	return cmd
}

func runSink(ctx context.Context, addr string, withTrace bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if withTrace {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("create trace exporter: %w", err)
		}
		provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
		otel.SetTracerProvider(provider)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = provider.Shutdown(shutdownCtx)
		}()
	}

	var batches, events atomic.Int64

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/events", func(w http.ResponseWriter, r *http.Request) {
		var p tracker.Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "malformed payload", http.StatusBadRequest)
			return
		}
		batches.Add(1)
		events.Add(int64(len(p.Events)))
		log.Printf("batch: project=%s session=%s user=%s events=%d",
			p.ProjectID, p.SessionID, p.UserID, len(p.Events))
		for _, ev := range p.Events {
			log.Printf("  %s %s %v", ev.Type, ev.Name, ev.Properties)
		}
		w.WriteHeader(http.StatusAccepted)
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("sink listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	log.Printf("sink stopped: %d batches, %d events", batches.Load(), events.Load())
	return err
}
