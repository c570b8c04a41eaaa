// Command codesctl maintains warehouse codes from the terminal. It talks to
// the API server and drives the same edit session as the web screen.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"wmsadmin/application/dto"
	"wmsadmin/pkg/codesclient"
	"wmsadmin/pkg/editsession"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type rootOptions struct {
	server    string
	tokenFile string
	operator  string
}

func main() {
	// A .env next to the binary may carry CODESCTL_* defaults.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "codesctl",
		Short:         "Maintain warehouse major, mid and sub codes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.server, "server", envOr("CODESCTL_SERVER", "http://localhost:8080/api"), "API base URL")
	cmd.PersistentFlags().StringVar(&opts.tokenFile, "token-file", envOr("CODESCTL_TOKEN_FILE", defaultTokenFile()), "Where the access token is kept")
	cmd.PersistentFlags().StringVar(&opts.operator, "operator", os.Getenv("CODESCTL_OPERATOR"), "Operator name printed on exports")

	cmd.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newTreeCmd(opts),
		newSearchCmd(opts),
		newApplyCmd(opts),
		newExportCmd(opts),
	)
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".codesctl-token"
	}
	return filepath.Join(home, ".codesctl", "token")
}

// client builds an API client carrying the saved token, if any.
func (o *rootOptions) client() *codesclient.Client {
	var opts []codesclient.Option
	if tok := os.Getenv("CODESCTL_TOKEN"); tok != "" {
		opts = append(opts, codesclient.WithToken(tok))
	} else if b, err := os.ReadFile(o.tokenFile); err == nil {
		opts = append(opts, codesclient.WithToken(strings.TrimSpace(string(b))))
	}
	return codesclient.New(o.server, opts...)
}

func (o *rootOptions) session(c *codesclient.Client) *editsession.Session {
	var opts []editsession.Option
	if o.operator != "" {
		opts = append(opts, editsession.WithOperator(o.operator))
	}
	return editsession.New(c, opts...)
}

func newLoginCmd(root *rootOptions) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("CODESCTL_PASSWORD")
			}
			c := root.client()
			resp, err := c.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			if !resp.Success {
				if resp.IsLocked {
					return fmt.Errorf("account locked: %s", resp.Message)
				}
				return fmt.Errorf("login failed (%d attempts): %s", resp.ErrorCount, resp.Message)
			}
			if err := os.MkdirAll(filepath.Dir(root.tokenFile), 0o700); err != nil {
				return fmt.Errorf("create token dir: %w", err)
			}
			if err := os.WriteFile(root.tokenFile, []byte(c.Token()), 0o600); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", resp.User.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Account name (required)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password, or set CODESCTL_PASSWORD")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newLogoutCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the saved token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := root.client().Logout(cmd.Context()); err != nil {
				return err
			}
			if err := os.Remove(root.tokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("remove token: %w", err)
			}
			return nil
		},
	}
}

func newTreeCmd(root *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the code tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := root.client().GetCodesTree(cmd.Context())
			if err != nil {
				return err
			}
			return encode(cmd.OutOrStdout(), output, tree)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "Output format: yaml or json")
	return cmd
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	var req dto.SearchCodesRequest
	var output string
	cmd := &cobra.Command{
		Use:   "search [keyword]",
		Short: "Search codes by keyword, major or mid",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				req.Keyword = args[0]
			}
			resp, err := root.client().Search(cmd.Context(), req)
			if err != nil {
				return err
			}
			return encode(cmd.OutOrStdout(), output, resp)
		},
	}
	cmd.Flags().StringVar(&req.MajorCatNo, "major", "", "Limit to one major")
	cmd.Flags().StringVar(&req.MidCatCode, "mid", "", "Limit to one mid")
	cmd.Flags().IntVar(&req.Page, "page", 1, "Result page")
	cmd.Flags().IntVar(&req.PageSize, "page-size", 20, "Results per page")
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "Output format: yaml or json")
	return cmd
}

func newApplyCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <edits.yaml>",
		Short: "Apply a file of code edits as one or more batches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open edits: %w", err)
			}
			defer f.Close()
			plan, err := parsePlan(f)
			if err != nil {
				return err
			}

			s := root.session(root.client())
			if err := s.Load(cmd.Context()); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return newApplier(s, func(res *editsession.SaveResult) {
				fmt.Fprintf(out, "saved batch %s\n", res.TrackingID)
			}).apply(cmd.Context(), plan)
		},
	}
}

func newExportCmd(root *rootOptions) *cobra.Command {
	var out, major, mid string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the code report as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := root.session(root.client())
			if err := s.Load(ctx); err != nil {
				return err
			}
			// The selection only feeds the report's filter lines.
			nav := newApplier(s, nil)
			if major != "" {
				if err := nav.selectMajor(ctx, major); err != nil {
					return err
				}
				if mid != "" {
					if err := nav.selectMid(ctx, major, mid); err != nil {
						return err
					}
				}
			}

			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create report: %w", err)
				}
				defer f.Close()
				w = f
			}
			return s.Export(time.Now()).WriteCSV(w)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "f", "-", "Output file, - for stdout")
	cmd.Flags().StringVar(&major, "major", "", "Major shown as the current filter")
	cmd.Flags().StringVar(&mid, "mid", "", "Mid shown as the current filter, needs --major")
	return cmd
}

func encode(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		// Round trip through JSON so the field names match the API.
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic interface{}
		if err := yaml.Unmarshal(b, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
