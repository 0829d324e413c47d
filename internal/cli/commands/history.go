package commands

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/fantienan/open-ai-dashboard/internal/cli/output"
	"github.com/fantienan/open-ai-dashboard/pkg/biz"
	"github.com/fantienan/open-ai-dashboard/pkg/core"
	"github.com/fantienan/open-ai-dashboard/pkg/fetcher"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit         int
	StartingAfter string
	EndingBefore  string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List your chats, newest first",
		Example: `  aidash history
  aidash history --limit 20 --starting-after <chatId>
  aidash history --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", core.DefaultHistoryLimit, "Page size")
	cmd.Flags().StringVar(&opts.StartingAfter, "starting-after", "", "Only chats newer than this chat")
	cmd.Flags().StringVar(&opts.EndingBefore, "ending-before", "", "Only chats older than this chat")
	cmd.MarkFlagsMutuallyExclusive("starting-after", "ending-before")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cc := NewCommandContext(cmd)
	client, err := newAPIClient(cc.Cfg)
	if err != nil {
		return err
	}
	if err := client.requireLogin(); err != nil {
		return err
	}

	h, err := client.history(cmd.Context(), opts)
	if err != nil {
		return err
	}

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(h)
	}
	r.Header(1, "Chats")
	rows := make([][]string, 0, len(h.Chats))
	for _, c := range h.Chats {
		rows = append(rows, []string{c.ID, c.Title, string(c.Visibility), c.CreatedAt.Local().Format(time.DateTime)})
	}
	r.Table([]string{"ID", "Title", "Visibility", "Created"}, rows)
	if h.HasMore && len(h.Chats) > 0 {
		r.Muted(fmt.Sprintf("More chats: aidash history --ending-before %s", h.Chats[len(h.Chats)-1].ID))
	}
	return nil
}

func (c *apiClient) history(ctx context.Context, opts *HistoryOptions) (*core.ChatHistory, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(opts.Limit))
	if opts.StartingAfter != "" {
		q.Set("startingAfter", opts.StartingAfter)
	}
	if opts.EndingBefore != "" {
		q.Set("endingBefore", opts.EndingBefore)
	}
	res, err := fetcher.Fetch[core.ChatHistory](ctx, c.Client, http.MethodGet, c.path("/chat/history?"+q.Encode()), nil)
	if err != nil {
		return nil, err
	}
	if err := resultError(res.Success, res.Code, res.Message); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

// resultError turns a failed envelope into an error.
func resultError(success bool, code biz.Code, msg string) error {
	if success {
		return nil
	}
	return fmt.Errorf("server error %d: %s", code, msg)
}
