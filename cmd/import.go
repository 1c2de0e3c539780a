package main

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tapline/visitplanner/internal/dedup"
	"github.com/tapline/visitplanner/internal/ingest"
	"github.com/tapline/visitplanner/internal/lineage"
	"github.com/tapline/visitplanner/internal/model"
	"github.com/tapline/visitplanner/internal/store"
)

var (
	importFiles        []string
	importListType     string
	importMode         string
	importDeadline     string
	importFollowUpDays int
	importPriority     int
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import pub lists from XLSX or CSV files",
	Long:  "Reads one or more list files, deduplicates the rows against the canonical set, applies auto-merges with full lineage, and stores the rest as new records. Needs-review matches are printed for the operator.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		listCfg, err := buildListConfig()
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		specs := make([]ingest.FileSpec, 0, len(importFiles))
		for _, path := range importFiles {
			fc := listCfg
			fc.FileID = uuid.NewString()
			fc.FileName = filepath.Base(path)
			specs = append(specs, ingest.FileSpec{Path: path, Config: fc})
		}

		incoming, err := ingest.ImportFiles(ctx, specs)
		if err != nil {
			return err
		}

		existing, err := st.ListPubs(ctx, store.PubFilter{})
		if err != nil {
			return err
		}

		sugg := dedup.SuggestWith(dedupConfig(), existing, incoming)

		merged := make(map[string]bool, len(sugg.AutoMerge))
		for _, cand := range sugg.AutoMerge {
			src := cand.Incoming.Sources[0]
			out := lineage.Merge(cand.Existing, cand.Incoming, src.RowIndex, src.Mapped, src.Extras)
			if err := st.UpsertPub(ctx, out); err != nil {
				return err
			}
			merged[cand.Incoming.UUID] = true
		}

		inserted := 0
		for _, p := range incoming {
			if merged[p.UUID] {
				continue
			}
			if err := st.UpsertPub(ctx, p); err != nil {
				return err
			}
			inserted++
		}

		for _, spec := range specs {
			rows := 0
			for _, p := range incoming {
				if len(p.Sources) > 0 && p.Sources[0].FileID == spec.Config.FileID {
					rows++
				}
			}
			if err := st.RecordImport(ctx, store.ImportRecord{
				FileID:   spec.Config.FileID,
				FileName: spec.Config.FileName,
				ListType: spec.Config.ListType,
				Mode:     spec.Config.Mode,
				RowCount: rows,
			}); err != nil {
				return err
			}
		}

		for _, cand := range sugg.NeedsReview {
			fmt.Printf("REVIEW  %-30s ~ %-30s  score=%.3f  %v\n",
				cand.Incoming.Name, cand.Existing.Name, cand.Score, cand.Reasons)
		}

		zap.L().Info("import complete",
			zap.Int("rows", len(incoming)),
			zap.Int("auto_merged", len(sugg.AutoMerge)),
			zap.Int("inserted", inserted),
			zap.Int("needs_review", len(sugg.NeedsReview)),
		)
		return nil
	},
}

// buildListConfig validates the scheduling-intent flags into a ListConfig
// shared by every file in this import.
func buildListConfig() (ingest.ListConfig, error) {
	lc := ingest.ListConfig{
		ListType: model.ListType(importListType),
		Mode:     model.SchedulingMode(importMode),
	}
	switch lc.Mode {
	case model.ModeDeadline:
		if importDeadline == "" {
			return lc, eris.New("import: --deadline is required with --mode deadline")
		}
		lc.Deadline = importDeadline
	case model.ModeFollowUp:
		if importFollowUpDays <= 0 {
			return lc, eris.New("import: --follow-up-days must be positive with --mode followup")
		}
		lc.FollowUpDays = importFollowUpDays
	case model.ModePriority:
		if importPriority <= 0 {
			return lc, eris.New("import: --priority must be positive with --mode priority")
		}
		lc.PriorityLevel = importPriority
	case "", model.ModeMaster:
		lc.Mode = model.ModeMaster
	default:
		return lc, eris.Errorf("import: unknown mode %q", importMode)
	}

	switch lc.ListType {
	case model.ListTypeMasterhouse, model.ListTypeWins, model.ListTypeHitlist, model.ListTypeUnvisited:
	default:
		return lc, eris.Errorf("import: unknown list type %q", importListType)
	}
	return lc, nil
}

func init() {
	importCmd.Flags().StringArrayVar(&importFiles, "file", nil, "list file to import, repeatable (.xlsx or .csv)")
	importCmd.Flags().StringVar(&importListType, "list-type", "wins", "list type: masterhouse, wins, hitlist, unvisited")
	importCmd.Flags().StringVar(&importMode, "mode", "master", "scheduling mode: deadline, followup, priority, master")
	importCmd.Flags().StringVar(&importDeadline, "deadline", "", "visit-by date (YYYY-MM-DD), with --mode deadline")
	importCmd.Flags().IntVar(&importFollowUpDays, "follow-up-days", 0, "follow-up window in days, with --mode followup")
	importCmd.Flags().IntVar(&importPriority, "priority", 0, "priority level (1 is most urgent), with --mode priority")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
