// graphrag is the single-machine CLI: index a parsed document into the
// graph store, then query it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Rithanya654/Generic-RAG/internal/app"
	"github.com/Rithanya654/Generic-RAG/internal/config"
	"github.com/Rithanya654/Generic-RAG/internal/util"
	"github.com/Rithanya654/Generic-RAG/pkg/ai"
	"github.com/Rithanya654/Generic-RAG/pkg/chunker"
	"github.com/Rithanya654/Generic-RAG/pkg/document"
	"github.com/Rithanya654/Generic-RAG/pkg/graph"
	"github.com/Rithanya654/Generic-RAG/pkg/graphstore"
	pgxstore "github.com/Rithanya654/Generic-RAG/pkg/graphstore/pgx"
	"github.com/Rithanya654/Generic-RAG/pkg/logger"
	"github.com/Rithanya654/Generic-RAG/pkg/logger/console"
	"github.com/Rithanya654/Generic-RAG/pkg/query"
	"github.com/Rithanya654/Generic-RAG/pkg/summary"
)

type cliApp struct {
	cfg   *config.Config
	store *pgxstore.Store
	ai    ai.Client
}

func setup(ctx context.Context) (*cliApp, error) {
	util.LoadEnv()

	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: util.GetEnvBool("DEBUG", false),
	}))

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	store, err := pgxstore.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	chain, err := app.NewAIChain(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &cliApp{cfg: cfg, store: store, ai: chain}, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var docID string

	root := &cobra.Command{
		Use:           "graphrag",
		Short:         "Document knowledge graph indexing and querying",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&docID, "doc", "doc-1", "document id")

	var (
		clear    bool
		clearAll bool
		maxPages int
	)
	indexCmd := &cobra.Command{
		Use:   "index <file>",
		Short: "Index a parsed document into the graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.store.Close()

			path := args[0]
			id := docID
			if !cmd.Flags().Changed("doc") {
				id = graph.DocIDFromPath(path)
			}

			parsed, err := document.NewJSONParser().Parse(path)
			if err != nil {
				return err
			}
			parsed.LimitPages(maxPages)

			ch, err := chunker.New(chunker.NewParams{
				Encoder:      a.cfg.Encoder,
				ChunkSize:    a.cfg.ChunkSize,
				Overlap:      a.cfg.ChunkOverlap,
				MaxChunkSize: a.cfg.MaxChunkSize,
			})
			if err != nil {
				return err
			}

			pipeline := graph.NewPipeline(a.cfg, a.store, a.ai, ch)
			stats, err := pipeline.Run(ctx, parsed, graph.RunParams{
				DocID:    id,
				Clear:    clear,
				ClearAll: clearAll,
			})
			if err != nil {
				return err
			}

			fmt.Println(formatStats(id, stats))
			return nil
		},
	}
	indexCmd.Flags().BoolVar(&clear, "clear", false, "clear this document's graph before indexing")
	indexCmd.Flags().BoolVar(&clearAll, "clear-all", false, "clear the entire graph before indexing")
	indexCmd.Flags().IntVar(&maxPages, "pages", 0, "index only the first N pages")

	queryCmd := &cobra.Command{
		Use:   "query-graph <question>",
		Short: "Answer a question from the document graph",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.store.Close()

			result, err := query.Global(ctx, a.store, a.ai, docID, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Println(query.FormatGlobal(result))
			return nil
		},
	}

	financialCmd := &cobra.Command{
		Use:   "query-financial <concept>",
		Short: "Show a financial concept across time periods",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.store.Close()

			tl, err := query.ConceptOverTime(ctx, a.store, docID, args[0])
			if err != nil {
				return err
			}
			fmt.Println(query.FormatConceptTimeline(tl))
			return nil
		},
	}

	compareCmd := &cobra.Command{
		Use:   "compare <concepts>",
		Short: "Compare financial concepts (comma-separated, e.g. Revenue,Profit)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.store.Close()

			var concepts []string
			for _, c := range strings.Split(args[0], ",") {
				if c = strings.TrimSpace(c); c != "" {
					concepts = append(concepts, c)
				}
			}

			timelines, err := query.CompareConcepts(ctx, a.store, docID, concepts)
			if err != nil {
				return err
			}
			fmt.Println(query.FormatComparison(timelines))
			return nil
		},
	}

	factsCmd := &cobra.Command{
		Use:   "query-facts [metric]",
		Short: "List extracted financial facts, optionally filtered by metric",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.store.Close()

			metric := ""
			if len(args) == 1 {
				metric = args[0]
			}

			result, err := query.Facts(ctx, a.store, docID, metric)
			if err != nil {
				return err
			}
			fmt.Println(query.FormatFacts(result))
			return nil
		},
	}

	summarizeCmd := &cobra.Command{
		Use:   "summarize-communities",
		Short: "Generate and store summaries for the document's communities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.store.Close()

			results, err := summary.Communities(ctx, a.store, a.ai, docID)
			if err != nil {
				return err
			}
			for _, c := range results {
				fmt.Printf("%s (%d sections)\n  %s\n", c.CommunityID, c.Sections, c.Summary)
			}
			return nil
		},
	}

	summarizeSectionsCmd := &cobra.Command{
		Use:   "summarize-sections <section_id>...",
		Short: "Generate (or read cached) summaries for specific sections",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.store.Close()

			summaries, err := summary.Sections(ctx, a.store, a.ai, docID, args)
			if err != nil {
				return err
			}
			for _, id := range args {
				if text, ok := summaries[id]; ok {
					fmt.Printf("%s\n  %s\n", id, text)
				}
			}
			return nil
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the document's graph statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.store.Close()

			stats, err := a.store.Stats(ctx, docID)
			if err != nil {
				return err
			}
			fmt.Println(formatStats(docID, stats))
			return nil
		},
	}

	root.AddCommand(indexCmd, queryCmd, financialCmd, compareCmd, factsCmd,
		summarizeCmd, summarizeSectionsCmd, statsCmd)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func formatStats(docID string, stats graphstore.Stats) string {
	return fmt.Sprintf(
		"Graph for %s\n%s\n"+
			"   Sections: %d\n"+
			"   Entities: %d\n"+
			"   Relationships: %d\n"+
			"   References: %d\n"+
			"   Financial Concepts: %d\n"+
			"   Time Periods: %d\n"+
			"   Financial Facts: %d\n"+
			"   Communities: %d",
		docID, strings.Repeat("=", 50),
		stats.Sections, stats.Entities, stats.Relationships, stats.References,
		stats.FinancialConcepts, stats.TimePeriods, stats.FinancialFacts, stats.Communities,
	)
}
