package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/rsned/fusion-planner/pkg/fusion"
)

// FormatPlanSummary renders a short human-readable report of a plan.
func FormatPlanSummary(resp *fusion.PlanResponse) string {
	var b strings.Builder
	plan := resp.Plan

	if plan == nil || !resp.Found {
		target := ""
		if plan != nil {
			target = plan.Target
		}
		fmt.Fprintf(&b, "Unknown commodity %q\n", target)
		return b.String()
	}

	fmt.Fprintf(&b, "Plan for %s (%s) x%s\n", resp.TargetName, plan.Target, humanize.Comma(int64(plan.Quantity)))

	if !resp.Reachable {
		fmt.Fprintf(&b, "  %s cannot be obtained: no gather rate and no recipe path\n", plan.Target)
		return b.String()
	}

	fmt.Fprintf(&b, "  cost per unit: %s h\n", hours(plan.CostPerUnit))
	fmt.Fprintf(&b, "  total time:    %s h (%s produced)\n", hours(plan.TotalTime), humanize.Commaf(plan.TotalProduced))
	fmt.Fprintf(&b, "  crafts:        %s (%s at the bench)\n", humanize.Comma(int64(plan.TotalCrafts)), plan.CraftTime)
	if !plan.Converged {
		b.WriteString("  warning: cost search stopped before converging\n")
	}

	if len(resp.ShoppingList) > 0 {
		b.WriteString("Shopping list:\n")
		for _, item := range resp.ShoppingList {
			fmt.Fprintf(&b, "  %-20s %10s", item.Name, humanize.Commaf(item.Quantity))
			if item.Rate > 0 {
				fmt.Fprintf(&b, "  %s h", hours(item.Hours))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// hours rounds to hundredths before adding thousands separators.
func hours(h float64) string {
	return humanize.Commaf(math.Round(h*100) / 100)
}
