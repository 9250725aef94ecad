// Package community groups a document's sections by their structural
// signals: resolved cross-section references weigh heavily, shared salient
// entities softly. Detection is adaptive; sparse or weakly modular graphs
// produce nothing rather than noise.
package community

import (
	"context"
	"fmt"
	"sort"

	gcommunity "gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/Rithanya654/Generic-RAG/pkg/graphstore"
	"github.com/Rithanya654/Generic-RAG/pkg/logger"
)

// Edge weight tunables. The modularity floor and the small-document cutoff
// are empirically tuned against annual-report style documents.
const (
	StrongEdgeWeight    = 3.0
	SoftEdgeBase        = 1.0
	SoftEdgeCap         = 3
	SmallDocMaxSections = 15
	MinModularity       = 0.15
)

// Detection outcome statuses.
const (
	StatusOK       = "ok"
	StatusEmpty    = "empty"
	StatusSkipped  = "skipped"
	StatusRejected = "rejected"
)

// Result describes one detection run.
type Result struct {
	Status      string
	Mode        string
	Sections    int
	Edges       int
	Communities int
	Modularity  float64
}

// Detect builds the weighted section graph from the store's edge readers,
// partitions it, and persists the surviving communities. Re-running is
// idempotent; community ids are deterministic for a given partition.
func Detect(ctx context.Context, store graphstore.GraphStorage, docID string) (Result, error) {
	sections, err := store.ListSections(ctx, docID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list sections: %w", err)
	}
	if len(sections) == 0 {
		return Result{Status: StatusEmpty}, nil
	}

	refEdges, err := store.SectionReferenceEdges(ctx, docID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read reference edges: %w", err)
	}
	entityEdges, err := store.SharedSalientEntityEdges(ctx, docID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read entity edges: %w", err)
	}

	g, nodeSection := buildGraph(sections, refEdges, entityEdges)
	edgeCount := g.WeightedEdges().Len()

	small := len(sections) <= SmallDocMaxSections
	result := Result{Sections: len(sections), Edges: edgeCount}

	if small {
		result.Mode = graphstore.ModeSmall

		if edgeCount == 0 {
			// One fallback community covering the whole document.
			all := make([]string, len(sections))
			for i, s := range sections {
				all[i] = s.SectionID
			}
			if err := persist(ctx, store, docID, [][]string{all}, 0.0, graphstore.ModeSmall); err != nil {
				return Result{}, err
			}
			result.Status = StatusOK
			result.Communities = 1
			return result, nil
		}

		groups, modularity := partition(g, nodeSection)
		if err := persist(ctx, store, docID, groups, modularity, graphstore.ModeSmall); err != nil {
			return Result{}, err
		}
		result.Status = StatusOK
		result.Communities = len(groups)
		result.Modularity = modularity
		return result, nil
	}

	result.Mode = graphstore.ModeNormal

	if edgeCount < len(sections) {
		logger.Info("[Community] graph too sparse, skipping", "sections", len(sections), "edges", edgeCount)
		result.Status = StatusSkipped
		return result, nil
	}

	groups, modularity := partition(g, nodeSection)
	result.Modularity = modularity

	if modularity < MinModularity {
		logger.Info("[Community] weak partition rejected", "modularity", modularity)
		result.Status = StatusRejected
		return result, nil
	}

	// Singletons carry no grouping signal in normal mode.
	kept := groups[:0]
	for _, group := range groups {
		if len(group) > 1 {
			kept = append(kept, group)
		}
	}

	if err := persist(ctx, store, docID, kept, modularity, graphstore.ModeNormal); err != nil {
		return Result{}, err
	}
	result.Status = StatusOK
	result.Communities = len(kept)
	return result, nil
}

// buildGraph assembles the weighted undirected section graph. Contributions
// to the same pair are additive, so weights are accumulated before any edge
// is set.
func buildGraph(
	sections []graphstore.SectionInfo,
	refEdges, entityEdges []graphstore.SectionEdge,
) (*simple.WeightedUndirectedGraph, map[int64]string) {
	g := simple.NewWeightedUndirectedGraph(0, 0)

	nodeID := make(map[string]int64, len(sections))
	nodeSection := make(map[int64]string, len(sections))
	for i, s := range sections {
		id := int64(i)
		nodeID[s.SectionID] = id
		nodeSection[id] = s.SectionID
		g.AddNode(simple.Node(id))
	}

	type pair struct{ a, b int64 }
	weights := map[pair]float64{}

	accumulate := func(source, target string, weight float64) {
		a, okA := nodeID[source]
		b, okB := nodeID[target]
		if !okA || !okB || a == b {
			return
		}
		if a > b {
			a, b = b, a
		}
		weights[pair{a, b}] += weight
	}

	for _, e := range refEdges {
		accumulate(e.Source, e.Target, StrongEdgeWeight)
	}
	for _, e := range entityEdges {
		accumulate(e.Source, e.Target, SoftEdgeBase+float64(min(e.Shared, SoftEdgeCap)))
	}

	for p, w := range weights {
		g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(p.a), T: simple.Node(p.b), W: w})
	}
	return g, nodeSection
}

// partition runs Louvain and returns the section groups with the achieved
// modularity. Members are sorted within each group and groups are ordered
// by their smallest member, so community ids are stable across reruns of
// the same partition.
func partition(g *simple.WeightedUndirectedGraph, nodeSection map[int64]string) ([][]string, float64) {
	reduced := gcommunity.Modularize(g, 1.0, nil)
	communities := reduced.Communities()
	modularity := gcommunity.Q(g, communities, 1.0)

	groups := make([][]string, 0, len(communities))
	for _, nodes := range communities {
		group := make([]string, 0, len(nodes))
		for _, n := range nodes {
			group = append(group, nodeSection[n.ID()])
		}
		sort.Strings(group)
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups, modularity
}

func persist(
	ctx context.Context,
	store graphstore.GraphStorage,
	docID string,
	groups [][]string,
	modularity float64,
	mode string,
) error {
	for i, group := range groups {
		communityID := fmt.Sprintf("%s:community:%d", docID, i)
		err := store.UpsertCommunity(ctx, docID, graphstore.Community{
			CommunityID: communityID,
			Size:        len(group),
			Modularity:  modularity,
			Mode:        mode,
		})
		if err != nil {
			return fmt.Errorf("failed to upsert community %s: %w", communityID, err)
		}
		for _, sectionID := range group {
			if err := store.LinkCommunityToSection(ctx, docID, communityID, sectionID); err != nil {
				return fmt.Errorf("failed to link community %s: %w", communityID, err)
			}
		}
	}
	return nil
}
