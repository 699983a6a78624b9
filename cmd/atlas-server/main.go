// Command atlas-server is the thin external-collaborator shim that wires
// services/runtime's handlers into an actual router. It owns gorilla/mux
// wiring and process-level configuration only; all serving logic lives in
// services/runtime/*, matching the spec's non-goal that router wiring is an
// external collaborator to the core.
package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/bijux/atlas/pkg/policy"
	"github.com/bijux/atlas/pkg/telemetry"
	"github.com/bijux/atlas/services/runtime/bulkhead"
	"github.com/bijux/atlas/services/runtime/cache"
	"github.com/bijux/atlas/services/runtime/cachedir"
	"github.com/bijux/atlas/services/runtime/httpapi"
	"github.com/bijux/atlas/services/runtime/ratelimit"
	"github.com/bijux/atlas/services/runtime/shedding"
	rttelemetry "github.com/bijux/atlas/services/runtime/telemetry"
	"github.com/bijux/atlas/pkg/store"
)

func main() {
	var (
		listenAddr   = flag.String("listen", ":8080", "HTTP listen address")
		storeRoot    = flag.String("store-root", "", "upstream artifact store root directory")
		policyPath   = flag.String("policy", "configs/policy/policy.json", "path to policy.json")
		schemaRoot   = flag.String("policy-schema-root", "configs/policy", "directory containing policy.schema.json")
		cacheDirFlag = flag.String("cache-dir", "", "local dataset cache directory override")
	)
	flag.Parse()

	logger := telemetry.NewLogger(os.Stdout, telemetry.Options{Service: "atlas-server", Timestamp: true})

	ctx := context.Background()
	doc, report, err := policy.Load(ctx, *schemaRoot, *policyPath)
	if err != nil {
		logger.Error(ctx, "policy load failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	if report.HasErrors() {
		logger.Error(ctx, "policy schema validation failed", nil)
		os.Exit(1)
	}

	resolvedCacheDir, err := cachedir.Resolve(*cacheDirFlag)
	if err != nil {
		logger.Error(ctx, "cache dir resolution failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	if *storeRoot == "" {
		logger.Error(ctx, "--store-root is required", nil)
		os.Exit(1)
	}
	upstream, err := store.NewLocalStore(*storeRoot)
	if err != nil {
		logger.Error(ctx, "store init failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	dsCache := cache.New(upstream, resolvedCacheDir, cache.Budget{
		MaxDiskBytes:        int64(doc.CacheBudget.MaxDiskBytes),
		MaxDatasetCount:     doc.CacheBudget.MaxDatasetCount,
		PinnedDatasetsMax:   doc.CacheBudget.PinnedDatasetsMax,
		ShardCountPolicyMax: doc.CacheBudget.ShardCountPolicyMax,
		MaxOpenShardsPerPod: doc.CacheBudget.MaxOpenShardsPerPod,
	})

	bulkheads := bulkhead.New(bulkhead.Sizes{
		Cheap:  doc.ConcurrencyBulkheads.Cheap,
		Medium: doc.ConcurrencyBulkheads.Medium,
		Heavy:  doc.ConcurrencyBulkheads.Heavy,
	})

	shedder := shedding.New(shedding.Config{Enabled: false, SampleWindow: 200, LatencyP95Threshold: 500 * time.Millisecond})

	limiter := ratelimit.New(doc.RateLimit.PerIPRPS, doc.RateLimit.PerIPRPS*2, 15*time.Minute)
	defer limiter.Close()

	cursorKey := make([]byte, 32)
	if _, err := rand.Read(cursorKey); err != nil {
		logger.Error(ctx, "cursor key generation failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	svc := newService(dsCache, bulkheads, shedder, limiter, doc, cursorKey)
	handlers := httpapi.HandlerSet{Service: svc}

	registry := prometheus.NewRegistry()
	_ = rttelemetry.NewPrometheusMeter(registry)

	router := mux.NewRouter()
	router.HandleFunc("/v1/datasets/{release}/{species}/{assembly}/genes", func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		handlers.GeneQuery(w, r, vars["release"], vars["species"], vars["assembly"])
	}).Methods(http.MethodGet)

	router.HandleFunc("/v1/releases/{release}/species/{species}/assemblies/{assembly}", func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		target := fmt.Sprintf("/v1/datasets/%s/%s/%s/genes", vars["release"], vars["species"], vars["assembly"])
		http.Redirect(w, r, target, http.StatusPermanentRedirect)
	}).Methods(http.MethodGet)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	handler := httpapi.Recoverer(router)

	logger.Info(ctx, "atlas-server starting", map[string]any{"addr": *listenAddr})
	if err := http.ListenAndServe(*listenAddr, handler); err != nil {
		logger.Error(ctx, "server exited", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
