package commands

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/fantienan/open-ai-dashboard/internal/cli/output"
	"github.com/fantienan/open-ai-dashboard/pkg/core"
	"github.com/fantienan/open-ai-dashboard/pkg/fetcher"
)

// LoginOptions holds options for the login command.
type LoginOptions struct {
	Token  string
	Verify bool
}

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	opts := &LoginOptions{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the token used by the client commands",
		Long: `Store an Authorization token for history, dashboard and chat. The token is
kept in the workspace for 7 days and replaced whenever a server rotates it.

With --verify (the default) the token is checked against the web server's
certification endpoint first.`,
		Example: `  aidash login --token "$AIDASH_TOKEN"
  aidash login --token abc --verify=false`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogin(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Token, "token", "", "Authorization token issued by the web server")
	cmd.Flags().BoolVar(&opts.Verify, "verify", true, "Check the token with the web server")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}

func runLogin(cmd *cobra.Command, opts *LoginOptions) error {
	cc := NewCommandContext(cmd)
	client, err := newAPIClient(cc.Cfg)
	if err != nil {
		return err
	}
	if err := client.storage.SetToken(opts.Token); err != nil {
		return err
	}

	var user *core.User
	if opts.Verify {
		user, err = client.certify(cmd.Context())
		if err != nil {
			_ = client.storage.Clear()
			return err
		}
	}

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]any{"loggedIn": true, "user": user})
	}
	if user != nil {
		r.Success("Logged in as " + user.Email)
	} else {
		r.Success("Token stored")
	}
	return nil
}

// certify asks the web server who owns the stored token.
func (c *apiClient) certify(ctx context.Context) (*core.User, error) {
	res, err := fetcher.Fetch[struct {
		User *core.User `json:"user"`
	}](ctx, c.Client, http.MethodGet, c.webRoot+"/auth/certification", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	if !res.Success || res.Data.User == nil {
		return nil, fmt.Errorf("token rejected by web server: %s", res.Message)
	}
	return res.Data.User, nil
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			client, err := newAPIClient(cc.Cfg)
			if err != nil {
				return err
			}
			if err := client.storage.Clear(); err != nil {
				return err
			}
			cc.Renderer.Success("Logged out")
			return nil
		},
	}
}
