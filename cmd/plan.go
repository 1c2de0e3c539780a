package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tapline/visitplanner/internal/model"
	"github.com/tapline/visitplanner/internal/postcode"
	"github.com/tapline/visitplanner/internal/schedule"
	"github.com/tapline/visitplanner/internal/store"
)

var (
	planDays           int
	planVisitsPerDay   int
	planStart          string
	planHome           string
	planRadius         int
	planLegacyDistance bool
	planListType       string
	planOut            string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a day-by-day visit schedule",
	Long:  "Loads the canonical pub set, buckets it by scheduling intent (deadline, follow-up, priority, master), and fills each business day greedily by proximity. Optionally exports the schedule to XLSX.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		opts, err := buildPlanOptions()
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		pubs, err := st.ListPubs(ctx, store.PubFilter{ListType: model.ListType(planListType)})
		if err != nil {
			return err
		}

		days, summary := schedule.Plan(pubs, opts)
		printSchedule(days)
		logSummary(summary)

		if planOut != "" {
			if err := schedule.WriteXLSX(days, planOut); err != nil {
				return err
			}
			zap.L().Info("schedule exported", zap.String("path", planOut))
		}
		return nil
	},
}

func buildPlanOptions() (schedule.Options, error) {
	opts := schedule.Options{
		BusinessDays:      planDays,
		VisitsPerDay:      planVisitsPerDay,
		HomePostcode:      planHome,
		SearchRadiusMiles: planRadius,
	}
	if opts.BusinessDays <= 0 {
		opts.BusinessDays = cfg.Planner.BusinessDays
	}
	if opts.VisitsPerDay <= 0 {
		opts.VisitsPerDay = cfg.Planner.VisitsPerDay
	}
	if opts.HomePostcode == "" {
		opts.HomePostcode = cfg.Planner.HomePostcode
	}
	if opts.SearchRadiusMiles <= 0 {
		opts.SearchRadiusMiles = cfg.Planner.SearchRadiusMiles
	}

	if planStart == "" {
		opts.StartDate = time.Now()
	} else {
		start, err := time.Parse("2006-01-02", planStart)
		if err != nil {
			return opts, eris.Wrapf(err, "plan: parse start date %q", planStart)
		}
		opts.StartDate = start
	}

	if planLegacyDistance || cfg.Planner.LegacyDistance {
		opts.Distance = postcode.PrefixProvider{}
	}
	return opts, nil
}

func printSchedule(days []model.ScheduleDay) {
	for _, day := range days {
		fmt.Printf("%s  (%d visits, %d mi, %d min)\n",
			day.Date, len(day.Visits), day.TotalMileage, day.TotalDriveTime)
		for i, v := range day.Visits {
			fmt.Printf("  %2d. %-30s %-10s %s\n", i+1, v.Pub.Name, v.Pub.Zip, v.Pub.Town)
		}
		for _, w := range day.SchedulingErrors {
			fmt.Printf("  !! %s\n", w)
		}
	}
}

func logSummary(summary schedule.Summary) {
	for bucket, stats := range summary.Buckets {
		if stats.Total == 0 {
			continue
		}
		zap.L().Info("bucket summary",
			zap.String("bucket", string(bucket)),
			zap.Int("total", stats.Total),
			zap.Int("scheduled", stats.Scheduled),
			zap.Int("excluded", stats.Excluded),
			zap.Int("invalid_geo", stats.Exclusions.InvalidGeo),
			zap.Int("radius_constrained", stats.Exclusions.RadiusConstrained),
		)
	}
}

func init() {
	planCmd.Flags().IntVar(&planDays, "days", 0, "business days to plan (default from config)")
	planCmd.Flags().IntVar(&planVisitsPerDay, "visits-per-day", 0, "visit cap per day (default from config)")
	planCmd.Flags().StringVar(&planStart, "start", "", "start date YYYY-MM-DD (default today; weekends roll to Monday)")
	planCmd.Flags().StringVar(&planHome, "home", "", "home postcode for start/end legs (default from config)")
	planCmd.Flags().IntVar(&planRadius, "radius", 0, "search radius in miles from home, 0 disables")
	planCmd.Flags().BoolVar(&planLegacyDistance, "legacy-distance", false, "use the legacy prefix distance model")
	planCmd.Flags().StringVar(&planListType, "list-type", "", "restrict to one list type")
	planCmd.Flags().StringVar(&planOut, "out", "", "write the schedule to this XLSX file")
	rootCmd.AddCommand(planCmd)
}
