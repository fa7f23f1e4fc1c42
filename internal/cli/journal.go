package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/lazypower/decisionos/internal/advice"
	"github.com/lazypower/decisionos/internal/config"
	"github.com/lazypower/decisionos/internal/engine"
	"github.com/lazypower/decisionos/internal/llm"
	"github.com/lazypower/decisionos/internal/logging"
	"github.com/lazypower/decisionos/internal/store"
	"github.com/spf13/cobra"
)

// openDB opens the configured database, falling back to the default path.
func openDB(cfg config.Config) (*store.DB, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	return store.Open(dbPath)
}

// --- profile command ---

var profileRefresh bool

var profileCmd = &cobra.Command{
	Use:   "profile <account-id>",
	Short: "Show the synthesized profile for an account",
	Long:  "Show the stored profile. With --refresh, synthesize it first (calls the model only when the decision count changed).",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfile,
}

func init() {
	profileCmd.Flags().BoolVar(&profileRefresh, "refresh", false, "Synthesize the profile before printing")
}

func runProfile(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	account := args[0]
	out := cmd.OutOrStdout()

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	if profileRefresh {
		client, err := llm.NewClient(ctx, cfg.LLM)
		if err != nil {
			return fmt.Errorf("llm: %w", err)
		}
		defer llm.Close(client)

		res, err := engine.New(db, client, logging.Nop(), cfg.Profile.RefreshTimeout).SynthesizeProfile(ctx, account)
		if err != nil {
			return err
		}
		if res.Message != "" {
			fmt.Fprintln(out, res.Message)
			return nil
		}
		if res.Updated {
			fmt.Fprintf(out, "Profile recomputed over %d decisions.\n\n", res.DecisionsCount)
		}
	}

	p, err := db.GetProfile(ctx, account)
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}
	if p == nil || p.Fields == nil {
		fmt.Fprintln(out, "No profile found. Save some decisions first.")
		return nil
	}

	fmt.Fprintf(out, "## Profile (%d decisions, updated %s)\n\n", p.DecisionsCount, p.UpdatedAt.Format(time.RFC3339))
	keys := make([]string, 0, len(p.Fields))
	for k := range p.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "- %s: %s\n", k, p.Fields[k])
	}
	return nil
}

// --- templates command ---

var templatesCmd = &cobra.Command{
	Use:   "templates [name]",
	Short: "List advice templates or show a template's fields",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTemplates,
}

func runTemplates(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		for _, name := range advice.Names() {
			t, _ := advice.Lookup(name)
			fmt.Fprintf(out, "%-14s %s\n", name, t.Title)
		}
		return nil
	}

	t, ok := advice.Lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown template %q", args[0])
	}
	fmt.Fprintf(out, "## %s\n", t.Title)
	for _, s := range t.Sections {
		fmt.Fprintf(out, "\n%s\n", s.Heading)
		for _, f := range s.Fields {
			req := ""
			if f.Required {
				req = " (required)"
			}
			fmt.Fprintf(out, "  %-26s %s%s\n", f.Key, f.Question, req)
		}
	}
	return nil
}
