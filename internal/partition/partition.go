package partition

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/szse-eventlog/internal/merge"
)

// Source is one sorted per-source event file with its resolved channel.
type Source struct {
	Channel int64
	Path    string
}

// Group is one merge unit: a set of inputs feeding one output artifact.
type Group struct {
	// Name identifies the group in logs and names its staging file.
	Name string

	// Channel is the group's channel in per-channel mode, -1 otherwise.
	Channel int64

	// Dest is the final artifact path.
	Dest string

	// Inputs keep the caller's source order, which fixes merge tie-breaks.
	Inputs []string
}

// ChannelFileName names the per-channel artifact for a channel.
func ChannelFileName(channel int64) string {
	return fmt.Sprintf("channel_%d.csv", channel)
}

// PlanCombined puts every source into one group writing outPath.
func PlanCombined(sources []Source, outPath string) []Group {
	inputs := make([]string, len(sources))
	for i, s := range sources {
		inputs[i] = s.Path
	}
	return []Group{{
		Name:    filepath.Base(outPath),
		Channel: -1,
		Dest:    outPath,
		Inputs:  inputs,
	}}
}

// PlanPerChannel groups sources by channel, one group per channel in
// ascending channel order. Source order within a channel is preserved.
func PlanPerChannel(sources []Source, outDir string) []Group {
	byChannel := make(map[int64][]string)
	var channels []int64
	for _, s := range sources {
		if _, seen := byChannel[s.Channel]; !seen {
			channels = append(channels, s.Channel)
		}
		byChannel[s.Channel] = append(byChannel[s.Channel], s.Path)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })

	groups := make([]Group, 0, len(channels))
	for _, ch := range channels {
		name := ChannelFileName(ch)
		groups = append(groups, Group{
			Name:    name,
			Channel: ch,
			Dest:    filepath.Join(outDir, name),
			Inputs:  byChannel[ch],
		})
	}
	return groups
}

// Run merges every group, at most workers groups at a time. Each group
// stages its merge under workDir and publishes to Dest on success. The
// first failure cancels the remaining groups.
func Run(ctx context.Context, groups []Group, workDir string, m *merge.Merger, workers int, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, group := range groups {
		group := group
		g.Go(func() error {
			staged := filepath.Join(workDir, group.Name+".staged")
			logger.Info("merging group",
				"group", group.Name,
				"inputs", len(group.Inputs),
			)
			if err := m.Merge(gctx, group.Inputs, staged); err != nil {
				return fmt.Errorf("group %s: %w", group.Name, err)
			}
			if dir := filepath.Dir(group.Dest); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("group %s: %w", group.Name, err)
				}
			}
			if err := merge.MoveFile(staged, group.Dest); err != nil {
				return fmt.Errorf("group %s publish: %w", group.Name, err)
			}
			logger.Info("group complete", "group", group.Name, "dest", group.Dest)
			return nil
		})
	}

	return g.Wait()
}
