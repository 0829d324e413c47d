package commands

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/fantienan/open-ai-dashboard/internal/cli/output"
	"github.com/fantienan/open-ai-dashboard/pkg/core"
	"github.com/fantienan/open-ai-dashboard/pkg/dashboard"
	"github.com/fantienan/open-ai-dashboard/pkg/fetcher"
)

// NewDashboardCommand creates the dashboard command group.
func NewDashboardCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Inspect generated dashboards",
	}
	cmd.AddCommand(newDashboardShowCommand())
	return cmd
}

func newDashboardShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <chatId> <messageId>",
		Short: "Show a dashboard grouped by layout",
		Long: `Fetch the dashboard generated for an assistant message and print its charts
grouped the way the dashboard view lays them out: indicator cards, full-width
blocks (50 rows or more), tables and the remaining charts.`,
		Example: `  aidash dashboard show 0b6a... 5c1e...
  aidash dashboard show 0b6a... 5c1e... --output json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			client, err := newAPIClient(cc.Cfg)
			if err != nil {
				return err
			}
			if err := client.requireLogin(); err != nil {
				return err
			}

			b, err := client.dashboardLayout(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if cc.Renderer.EffectiveMode() == output.ModeJSON {
				return cc.Renderer.JSON(b)
			}
			renderBuckets(cc.Renderer, b)
			return nil
		},
	}
}

func (c *apiClient) dashboardLayout(ctx context.Context, chatID, messageID string) (*dashboard.Buckets, error) {
	q := url.Values{"chatId": {chatID}, "messageId": {messageID}}
	res, err := fetcher.Fetch[dashboard.Buckets](ctx, c.Client, http.MethodGet, c.path("/dashboard/layout?"+q.Encode()), nil)
	if err != nil {
		return nil, err
	}
	if err := resultError(res.Success, res.Code, res.Message); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func renderBuckets(r *output.Renderer, b *dashboard.Buckets) {
	title := b.Title
	if title == "" {
		title = "Dashboard"
	}
	r.Header(1, title)
	if b.Description != "" {
		r.Println(b.Description)
		r.Println("")
	}

	groups := []struct {
		name   string
		charts []core.AnalyzeResult
	}{
		{"Indicator cards", b.Indicators},
		{"Blocks", b.Blocks},
		{"Tables", b.Tables},
		{"Charts", b.Charts},
	}
	for _, g := range groups {
		if len(g.charts) == 0 {
			continue
		}
		r.Header(2, fmt.Sprintf("%s (%d)", g.name, len(g.charts)))
		rows := make([][]string, 0, len(g.charts))
		for _, c := range g.charts {
			rows = append(rows, []string{string(c.ChartType), c.Title.Value, c.TableName, fmt.Sprint(c.RowCount())})
		}
		r.Table([]string{"Type", "Title", "Table", "Rows"}, rows)
		r.Println("")
	}
	if b.Len() == 0 {
		r.Muted("(no charts)")
	}
}
