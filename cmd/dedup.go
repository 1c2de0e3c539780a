package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tapline/visitplanner/internal/dedup"
	"github.com/tapline/visitplanner/internal/ingest"
	"github.com/tapline/visitplanner/internal/store"
)

var dedupFiles []string

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Dry-run dedup of list files against the canonical set",
	Long:  "Reads the given files and prints the auto-merge and needs-review suggestions as JSON without applying anything.",
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

		specs := make([]ingest.FileSpec, 0, len(dedupFiles))
		for _, path := range dedupFiles {
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

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sugg); err != nil {
			return err
		}

		zap.L().Info("dedup dry run complete",
			zap.Int("incoming", len(incoming)),
			zap.Int("auto_merge", len(sugg.AutoMerge)),
			zap.Int("needs_review", len(sugg.NeedsReview)),
		)
		return nil
	},
}

func init() {
	dedupCmd.Flags().StringArrayVar(&dedupFiles, "file", nil, "list file to check, repeatable (.xlsx or .csv)")
	dedupCmd.Flags().StringVar(&importListType, "list-type", "wins", "list type: masterhouse, wins, hitlist, unvisited")
	dedupCmd.Flags().StringVar(&importMode, "mode", "master", "scheduling mode: deadline, followup, priority, master")
	dedupCmd.Flags().StringVar(&importDeadline, "deadline", "", "visit-by date (YYYY-MM-DD), with --mode deadline")
	dedupCmd.Flags().IntVar(&importFollowUpDays, "follow-up-days", 0, "follow-up window in days, with --mode followup")
	dedupCmd.Flags().IntVar(&importPriority, "priority", 0, "priority level (1 is most urgent), with --mode priority")
	_ = dedupCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(dedupCmd)
}
