package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tapline/visitplanner/internal/model"
	"github.com/tapline/visitplanner/internal/store"
)

var (
	pubsListType string
	pubsLimit    int
)

var pubsCmd = &cobra.Command{
	Use:   "pubs",
	Short: "List canonical pub records",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		pubs, err := st.ListPubs(ctx, store.PubFilter{
			ListType: model.ListType(pubsListType),
			Limit:    pubsLimit,
		})
		if err != nil {
			return err
		}

		fmt.Printf("%-36s %-30s %-10s %-15s %-11s %-9s %s\n",
			"UUID", "PUB", "POSTCODE", "TOWN", "LIST", "MODE", "PLAN")
		for _, p := range pubs {
			fmt.Printf("%-36s %-30s %-10s %-15s %-11s %-9s %s\n",
				p.UUID, p.Name, p.Zip, p.Town, p.ListType, planMode(p), planDetail(p))
		}
		fmt.Printf("%d records\n", len(pubs))
		return nil
	},
}

func planMode(p model.Pub) model.SchedulingMode {
	if p.EffectivePlan != nil {
		return p.EffectivePlan.PrimaryMode
	}
	return model.ModeMaster
}

func planDetail(p model.Pub) string {
	ep := p.EffectivePlan
	if ep == nil {
		return ""
	}
	switch ep.PrimaryMode {
	case model.ModeDeadline:
		return "by " + ep.Deadline
	case model.ModeFollowUp:
		return fmt.Sprintf("within %d days", ep.FollowUpDays)
	case model.ModePriority:
		return fmt.Sprintf("priority %d", ep.PriorityLevel)
	}
	return ""
}

func init() {
	pubsCmd.Flags().StringVar(&pubsListType, "list-type", "", "restrict to one list type")
	pubsCmd.Flags().IntVar(&pubsLimit, "limit", 0, "maximum records to print, 0 for all")
	rootCmd.AddCommand(pubsCmd)
}
