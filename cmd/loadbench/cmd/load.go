package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/arangoml/phenolrs-go/internal/diagnostics"
	"github.com/arangoml/phenolrs-go/internal/orchestrator"
	"github.com/arangoml/phenolrs-go/internal/repository"
	"github.com/arangoml/phenolrs-go/internal/storage"
	"github.com/arangoml/phenolrs-go/pkg/config"
	"github.com/arangoml/phenolrs-go/pkg/httpdb"
	"github.com/arangoml/phenolrs-go/pkg/model"
	"github.com/arangoml/phenolrs-go/pkg/utils"
)

var (
	metagraphPath string
	outputMode    string
	exportDiag    bool
)

// loadCmd runs one ingest pass against a document-graph database.
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Scan a metagraph and assemble its feature/COO/NetworkX output",
	RunE:  runLoad,
}

func init() {
	loadCmd.Flags().StringVarP(&metagraphPath, "metagraph", "m", "", "Path to the metagraph request JSON file (required)")
	loadCmd.Flags().StringVar(&outputMode, "mode", "features", "Output mode: features, coo, or networkx")
	loadCmd.Flags().BoolVar(&exportDiag, "export-diagnostics", false, "Export a run summary via the configured storage backend")
	_ = loadCmd.MarkFlagRequired("metagraph")
	rootCmd.AddCommand(loadCmd)
}

// metagraphRequest is the on-disk JSON shape for a load request, mirroring
// spec.md §9's metagraph/graph_config wire shape.
type metagraphRequest struct {
	VertexCollections []struct {
		Name              string            `json:"name"`
		Fields            map[string]string `json:"fields"`
		LoadAllAttributes bool              `json:"load_all_attributes"`
	} `json:"vertex_collections"`
	EdgeCollections []struct {
		Name                string   `json:"name"`
		AttributeFields     []string `json:"attribute_fields"`
		LoadAllAttributes   bool     `json:"load_all_attributes"`
	} `json:"edge_collections"`
	GraphConfig struct {
		IsDirected                bool `json:"is_directed"`
		IsMultigraph              bool `json:"is_multigraph"`
		SymmetrizeEdgesIfDirected bool `json:"symmetrize_edges_if_directed"`
		LoadAdjDict               bool `json:"load_adj_dict"`
		LoadCOO                   bool `json:"load_coo"`
		LoadAllVertexAttributes   bool `json:"load_all_vertex_attributes"`
		LoadAllEdgeAttributes     bool `json:"load_all_edge_attributes"`
		LoadNodeDict              bool `json:"load_node_dict"`
		LoadAdjDictAsUndirected   bool `json:"load_adj_dict_as_undirected"`
	} `json:"graph_config"`
}

func (r metagraphRequest) toModel() (model.Metagraph, model.GraphConfig) {
	mg := model.Metagraph{}
	for _, v := range r.VertexCollections {
		spec := model.VertexCollectionSpec{Name: v.Name, LoadAllAttributes: v.LoadAllAttributes}
		for alias, field := range v.Fields {
			spec.Fields = append(spec.Fields, model.FieldSpec{OutputAlias: alias, SourceField: field})
		}
		mg.VertexCollections = append(mg.VertexCollections, spec)
	}
	for _, e := range r.EdgeCollections {
		mg.EdgeCollections = append(mg.EdgeCollections, model.EdgeCollectionSpec{
			Name:              e.Name,
			AttributeFields:   e.AttributeFields,
			LoadAllAttributes: e.LoadAllAttributes,
		})
	}
	cfg := model.GraphConfig{
		IsDirected:                r.GraphConfig.IsDirected,
		IsMultigraph:              r.GraphConfig.IsMultigraph,
		SymmetrizeEdgesIfDirected: r.GraphConfig.SymmetrizeEdgesIfDirected,
		LoadAdjDict:               r.GraphConfig.LoadAdjDict,
		LoadCOO:                  r.GraphConfig.LoadCOO,
		LoadAllVertexAttributes:   r.GraphConfig.LoadAllVertexAttributes,
		LoadAllEdgeAttributes:     r.GraphConfig.LoadAllEdgeAttributes,
		LoadNodeDict:              r.GraphConfig.LoadNodeDict,
		LoadAdjDictAsUndirected:   r.GraphConfig.LoadAdjDictAsUndirected,
	}
	return mg, cfg
}

func parseOutputMode(s string) (model.OutputMode, error) {
	switch s {
	case "features":
		return model.OutputFeatures, nil
	case "coo":
		return model.OutputCOO, nil
	case "networkx":
		return model.OutputNetworkX, nil
	default:
		return 0, fmt.Errorf("unknown output mode: %s (valid: features, coo, networkx)", s)
	}
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	raw, err := os.ReadFile(metagraphPath)
	if err != nil {
		return fmt.Errorf("reading metagraph file: %w", err)
	}
	var reqFile metagraphRequest
	if err := json.Unmarshal(raw, &reqFile); err != nil {
		return fmt.Errorf("parsing metagraph file: %w", err)
	}
	metagraph, graphConfig := reqFile.toModel()

	mode, err := parseOutputMode(outputMode)
	if err != nil {
		return err
	}

	pool, err := httpdb.NewPool(httpdb.Config{
		Endpoints:   cfg.GraphDB.Endpoints,
		AuthMode:    cfg.GraphDB.AuthMode,
		Username:    cfg.GraphDB.Username,
		Password:    cfg.GraphDB.Password,
		JWTToken:    cfg.GraphDB.JWTToken,
		TLSCertPEM:  []byte(cfg.GraphDB.TLSCertPEM),
		TLSInsecure: cfg.GraphDB.TLSInsecure,
		Timeout:     time.Duration(cfg.GraphDB.Timeout) * time.Second,
		MaxRetries:  cfg.Ingest.MaxRetries,
	})
	if err != nil {
		return fmt.Errorf("building database connection pool: %w", err)
	}

	var ledger repository.IngestRunRepository
	gormDB, err := repository.NewGormDB(&repository.DBConfig{
		Type:     cfg.Ledger.Type,
		Host:     cfg.Ledger.Host,
		Port:     cfg.Ledger.Port,
		Database: cfg.Ledger.Database,
		User:     cfg.Ledger.User,
		Password: cfg.Ledger.Password,
		MaxConns: cfg.Ledger.MaxConns,
	})
	if err != nil {
		logger.Warn("run ledger unavailable, continuing without it: %v", err)
	} else {
		ledger = repository.NewGormIngestRunRepository(gormDB)
	}

	runID := uuid.NewString()
	ctx := context.Background()
	if ledger != nil {
		metagraphJSON, err := repository.MarshalMetagraph(reqFile)
		if err != nil {
			logger.Warn("failed to encode metagraph for run ledger: %v", err)
		}
		if err := ledger.CreateRun(ctx, &repository.IngestRun{
			RunID:     runID,
			Database:  cfg.GraphDB.Database,
			Mode:      outputMode,
			State:     orchestrator.StateIdle.String(),
			Metagraph: metagraphJSON,
			StartedAt: time.Now(),
		}); err != nil {
			logger.Warn("failed to record run start: %v", err)
		}
	}

	opts := orchestrator.Options{
		Database:      cfg.GraphDB.Database,
		Metagraph:     metagraph,
		GraphConfig:   graphConfig,
		Mode:          mode,
		Parallelism:   cfg.Ingest.Parallelism,
		BatchSize:     cfg.Ingest.BatchSize,
		PrefetchCount: cfg.Ingest.PrefetchCount,
	}

	logger.Info("starting ingest run %s against database %q (mode: %s)", runID, cfg.GraphDB.Database, outputMode)
	orch := orchestrator.New(pool, opts)

	progressDone := make(chan struct{})
	go reportProgress(orch, progressDone)
	result, runErr := orch.Run(ctx)
	close(progressDone)

	if ledger != nil {
		if runErr != nil {
			if err := ledger.FailRun(ctx, runID, runErr.Error()); err != nil {
				logger.Warn("failed to record run failure: %v", err)
			}
		} else {
			vertexCount, edgeCount := summarizeCounts(result)
			if err := ledger.CompleteRun(ctx, runID, vertexCount, edgeCount); err != nil {
				logger.Warn("failed to record run completion: %v", err)
			}
		}
	}

	if exportDiag {
		if diagErr := exportRunDiagnostics(ctx, cfg, runID, outputMode, orch.State(), result, runErr); diagErr != nil {
			logger.Warn("failed to export diagnostics: %v", diagErr)
		}
	}

	if runErr != nil {
		return fmt.Errorf("ingest run %s aborted: %w", runID, runErr)
	}

	logger.Info("ingest run %s completed successfully", runID)
	printPhaseTimings(orch.Timings())
	printResultSummary(result)
	return nil
}

// printPhaseTimings logs the per-phase duration breakdown recorded by the
// orchestrator's internal timer, so long scans can be diagnosed without a
// profiler.
func printPhaseTimings(phases []*utils.Phase) {
	for _, p := range phases {
		logger.Info("phase %s: %s", p.Name, p.Duration)
	}
}

// reportProgress logs shard-scan progress every two seconds until done is
// closed, so long-running ingest runs aren't silent on the terminal.
func reportProgress(orch *orchestrator.Orchestrator, done <-chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			completed, total := orch.Progress()
			if total > 0 {
				logger.Info("shard progress: %d/%d (%s)", completed, total, orch.State())
			}
		}
	}
}

func summarizeCounts(result *orchestrator.Result) (int64, int64) {
	if result == nil {
		return 0, 0
	}
	var edgeCount int64
	switch {
	case result.COO != nil:
		edgeCount = int64(result.COO.COOMap.TotalEdges())
	case result.Features != nil:
		edgeCount = int64(result.Features.COOMap.TotalEdges())
	case result.NetworkX != nil:
		edgeCount = int64(result.NetworkX.COOMap.TotalEdges())
	}
	var vertexCount int64
	if result.Registry != nil {
		for _, name := range result.Registry.Collections() {
			vertexCount += int64(result.Registry.For(name).Len())
		}
	}
	return vertexCount, edgeCount
}

func exportRunDiagnostics(ctx context.Context, cfg *config.Config, runID, mode string, finalState orchestrator.State, result *orchestrator.Result, runErr error) error {
	store, err := storage.NewStorage(&cfg.Storage)
	if err != nil {
		return fmt.Errorf("building storage backend: %w", err)
	}
	exporter := diagnostics.NewExporter(store)

	vertexCount, edgeCount := summarizeCounts(result)
	summary := diagnostics.RunSummary{
		RunID:       runID,
		Database:    cfg.GraphDB.Database,
		Mode:        mode,
		FinalState:  finalState.String(),
		VertexCount: vertexCount,
		EdgeCount:   edgeCount,
		ExportedAt:  time.Now(),
	}
	if runErr != nil {
		summary.ErrorMessage = runErr.Error()
	}
	return exporter.ExportSummary(ctx, summary)
}

func printResultSummary(result *orchestrator.Result) {
	if result == nil {
		return
	}
	switch {
	case result.Features != nil:
		logger.Info("feature matrices: %d vertex collections", len(result.Features.FeatureMatrices))
		logger.Info("coo edges: %d", result.Features.COOMap.TotalEdges())
	case result.COO != nil:
		logger.Info("coo edges: %d", result.COO.COOMap.TotalEdges())
	case result.NetworkX != nil:
		logger.Info("networkx nodes: %d", len(result.NetworkX.NodeDict))
		logger.Info("networkx coo edges: %d", result.NetworkX.COOMap.TotalEdges())
		logger.Info("networkx flat edges: %d (src_idx/dst_idx/edge_idx), %d attribute vectors",
			len(result.NetworkX.SrcIdx), len(result.NetworkX.EdgeAttrVectors))
	}
}
