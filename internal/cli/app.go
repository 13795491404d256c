// Package cli implements the parley command for running negotiations at
// the table against a local SQLite or MySQL store.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Rrens/parley/internal/config"
	"github.com/Rrens/parley/internal/domain"
	"github.com/Rrens/parley/internal/logger"
	"github.com/Rrens/parley/internal/negotiation"
	"github.com/Rrens/parley/internal/repository/sqlstore"
	"github.com/Rrens/parley/internal/service"
)

// Options are the global flags shared by every command
type Options struct {
	ConfigPath string
	Driver     string
	DSN        string
	Campaign   string
	Output     string
	Verbose    bool
}

// App represents the parley CLI application
type App struct {
	Options Options
	// Engine overrides the negotiation engine, mainly for tests.
	Engine *negotiation.Engine
}

// NewApp creates a new parley CLI application
func NewApp() *App {
	return &App{}
}

// table is an open local store with a negotiation service bound to the
// selected campaign
type table struct {
	store      *sqlstore.Store
	logs       io.Closer
	svc        *service.NegotiationService
	campaignID string
	out        io.Writer
	format     string
}

func (app *App) open(cmd *cobra.Command) (*table, error) {
	path := app.Options.ConfigPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "./configs/config.yaml"
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if app.Options.Driver != "" {
		cfg.Local.Driver = app.Options.Driver
	}
	if app.Options.DSN != "" {
		cfg.Local.DSN = app.Options.DSN
	}

	logCfg := cfg.Logging
	logCfg.Level = "warn"
	if app.Options.Verbose {
		logCfg.Level = "debug"
	}
	logs, err := logger.Setup(logCfg, "development")
	if err != nil {
		return nil, err
	}

	store, err := sqlstore.Open(cmd.Context(), cfg.Local)
	if err != nil {
		logs.Close()
		return nil, err
	}

	engine := app.Engine
	if engine == nil {
		engine = negotiation.NewEngine()
	}

	campaigns := newLocalCampaigns(app.Options.Campaign)
	svc := service.NewNegotiationService(
		engine,
		campaigns,
		store.Negotiations(),
		store.History(),
		nil,
		nil,
		nil,
		cfg.Negotiation,
	)

	return &table{
		store:      store,
		logs:       logs,
		svc:        svc,
		campaignID: campaigns.campaign.ID.String(),
		out:        cmd.OutOrStdout(),
		format:     app.Options.Output,
	}, nil
}

// run opens the store for the duration of fn
func (app *App) run(fn func(ctx context.Context, t *table, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		t, err := app.open(cmd)
		if err != nil {
			return err
		}
		defer t.logs.Close()
		defer t.store.Close()
		return fn(cmd.Context(), t, args)
	}
}

// CreateRootCommand creates and configures the root command
func (app *App) CreateRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "parley",
		Short: "Run social negotiations with NPCs at the table",
		Long: `parley tracks negotiation encounters: an NPC's interest and patience,
their hidden motivations and pitfalls, and every argument the party makes,
until the negotiation resolves into an outcome.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&app.Options.ConfigPath, "config", "", "config file (default $CONFIG_PATH or ./configs/config.yaml)")
	flags.StringVar(&app.Options.Driver, "driver", "", "local database driver: sqlite or mysql")
	flags.StringVar(&app.Options.DSN, "dsn", "", "local database DSN or SQLite file path")
	flags.StringVar(&app.Options.Campaign, "campaign", "default", "local campaign name")
	flags.StringVarP(&app.Options.Output, "output", "o", "text", "output format: text, json or yaml")
	flags.BoolVarP(&app.Options.Verbose, "verbose", "v", false, "verbose logging")

	app.addSessionCommands(rootCmd)
	app.addTableCommands(rootCmd)
	app.addArchiveCommands(rootCmd)

	return rootCmd
}

func (app *App) addSessionCommands(rootCmd *cobra.Command) {
	var templatePath string
	newCmd := &cobra.Command{
		Use:   "new -f npc.yaml",
		Short: "Create a negotiation from an NPC template",
		Args:  cobra.NoArgs,
		RunE: app.run(func(ctx context.Context, t *table, _ []string) error {
			f, err := openInput(templatePath)
			if err != nil {
				return err
			}
			defer f.Close()

			tmpl, err := LoadTemplate(f)
			if err != nil {
				return err
			}
			n, err := t.svc.Create(ctx, localGM, campaignID(app.Options.Campaign), tmpl.NegotiationCreate())
			if err != nil {
				return err
			}
			return t.render(n, func(w io.Writer) { fmt.Fprintln(w, n.ID) })
		}),
	}
	newCmd.Flags().StringVarP(&templatePath, "file", "f", "-", "template file, - for stdin")

	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List negotiations in the campaign",
		Args:  cobra.NoArgs,
		RunE: app.run(func(ctx context.Context, t *table, _ []string) error {
			items, err := t.svc.List(ctx, localGM, campaignID(app.Options.Campaign), limit, offset)
			if err != nil {
				return err
			}
			return t.render(items, func(w io.Writer) { writeList(w, items) })
		}),
	}
	listCmd.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	listCmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a negotiation",
		Args:  cobra.ExactArgs(1),
		RunE: app.run(func(ctx context.Context, t *table, args []string) error {
			n, err := t.svc.Get(ctx, localGM, campaignID(app.Options.Campaign), args[0])
			if err != nil {
				return err
			}
			return t.render(n, func(w io.Writer) { writeNegotiation(w, n) })
		}),
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a negotiation that has not been completed",
		Args:  cobra.ExactArgs(1),
		RunE: app.run(func(ctx context.Context, t *table, args []string) error {
			return t.svc.Delete(ctx, localGM, campaignID(app.Options.Campaign), args[0])
		}),
	}

	rootCmd.AddCommand(newCmd, listCmd, showCmd, deleteCmd)
}

func (app *App) addTableCommands(rootCmd *cobra.Command) {
	startCmd := &cobra.Command{
		Use:   "start <id>",
		Short: "Begin a prepared negotiation",
		Args:  cobra.ExactArgs(1),
		RunE: app.run(func(ctx context.Context, t *table, args []string) error {
			n, err := t.svc.Start(ctx, localGM, campaignID(app.Options.Campaign), args[0])
			if err != nil {
				return err
			}
			return t.render(n, func(w io.Writer) { writeCounters(w, n) })
		}),
	}

	var motivation string
	var pitfall string
	revealCmd := &cobra.Command{
		Use:   "reveal <id> (--motivation TYPE | --pitfall INDEX|TEXT)",
		Short: "Reveal one of the NPC's traits to the party",
		Args:  cobra.ExactArgs(1),
		RunE: app.run(func(ctx context.Context, t *table, args []string) error {
			campaign := campaignID(app.Options.Campaign)
			var (
				n   *domain.Negotiation
				err error
			)
			switch {
			case motivation != "" && pitfall != "":
				return fmt.Errorf("use either --motivation or --pitfall")
			case motivation != "":
				n, err = t.svc.RevealMotivation(ctx, localGM, campaign, args[0], motivation)
			case pitfall != "":
				if index, convErr := strconv.Atoi(pitfall); convErr == nil {
					n, err = t.svc.RevealPitfall(ctx, localGM, campaign, args[0], index)
				} else {
					n, err = t.svc.RevealPitfallByDescription(ctx, localGM, campaign, args[0], pitfall)
				}
			default:
				return fmt.Errorf("one of --motivation or --pitfall is required")
			}
			if err != nil {
				return err
			}
			return t.render(n, func(w io.Writer) { writeTraits(w, n) })
		}),
	}
	revealCmd.Flags().StringVar(&motivation, "motivation", "", "motivation type to reveal")
	revealCmd.Flags().StringVar(&pitfall, "pitfall", "", "pitfall index or description to reveal")

	var arg domain.ArgumentCreate
	argueCmd := &cobra.Command{
		Use:   "argue <id> --tier N [--interest D] [--patience D] [--motivation TYPE] [--desc TEXT]",
		Short: "Record an argument and its resolved effect",
		Args:  cobra.ExactArgs(1),
		RunE: app.run(func(ctx context.Context, t *table, args []string) error {
			res, err := t.svc.ApplyArgument(ctx, localGM, campaignID(app.Options.Campaign), args[0], arg)
			if err != nil {
				return err
			}
			return t.render(res, func(w io.Writer) { writeApplied(w, res) })
		}),
	}
	argueCmd.Flags().IntVar(&arg.Tier, "tier", 0, "argument tier (1-3)")
	argueCmd.Flags().IntVar(&arg.InterestChange, "interest", 0, "interest delta")
	argueCmd.Flags().IntVar(&arg.PatienceChange, "patience", 0, "patience delta")
	argueCmd.Flags().StringVar(&arg.MotivationType, "motivation", "", "motivation the argument appeals to")
	argueCmd.Flags().StringVar(&arg.Description, "desc", "", "what the party said")
	_ = argueCmd.MarkFlagRequired("tier")

	completeCmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "End a negotiation and resolve its outcome",
		Args:  cobra.ExactArgs(1),
		RunE: app.run(func(ctx context.Context, t *table, args []string) error {
			n, err := t.svc.Complete(ctx, localGM, campaignID(app.Options.Campaign), args[0])
			if err != nil {
				return err
			}
			return t.render(n, func(w io.Writer) { writeOutcome(w, n) })
		}),
	}

	traitsCmd := &cobra.Command{
		Use:   "traits <id>",
		Short: "Show known traits and how many remain concealed",
		Args:  cobra.ExactArgs(1),
		RunE: app.run(func(ctx context.Context, t *table, args []string) error {
			view, err := t.svc.Traits(ctx, localGM, campaignID(app.Options.Campaign), args[0])
			if err != nil {
				return err
			}
			return t.render(view, func(w io.Writer) { writeTraitView(w, view) })
		}),
	}

	rootCmd.AddCommand(startCmd, revealCmd, argueCmd, completeCmd, traitsCmd)
}

func (app *App) addArchiveCommands(rootCmd *cobra.Command) {
	var outPath string
	var asTemplate bool
	exportCmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a negotiation snapshot as JSON, or as a YAML template",
		Args:  cobra.ExactArgs(1),
		RunE: app.run(func(ctx context.Context, t *table, args []string) error {
			n, err := t.svc.Get(ctx, localGM, campaignID(app.Options.Campaign), args[0])
			if err != nil {
				return err
			}

			var data []byte
			if asTemplate {
				data, err = encodeYAML(TemplateFromSession(&n.Session))
			} else {
				data, err = ExportSnapshot(&n.Session)
			}
			if err != nil {
				return err
			}
			return writeOutput(t.out, outPath, data)
		}),
	}
	exportCmd.Flags().StringVarP(&outPath, "file", "f", "-", "output file, - for stdout")
	exportCmd.Flags().BoolVar(&asTemplate, "template", false, "export the NPC as a reusable YAML template")

	var inPath string
	importCmd := &cobra.Command{
		Use:   "import -f snapshot.json",
		Short: "Import a negotiation snapshot",
		Args:  cobra.NoArgs,
		RunE: app.run(func(ctx context.Context, t *table, _ []string) error {
			f, err := openInput(inPath)
			if err != nil {
				return err
			}
			defer f.Close()

			data, err := io.ReadAll(f)
			if err != nil {
				return err
			}
			session, err := ImportSnapshot(data)
			if err != nil {
				return err
			}

			gm := localGM
			n := &domain.Negotiation{
				CampaignID: campaignID(app.Options.Campaign),
				CreatedBy:  &gm,
				Session:    *session,
			}
			var entry *domain.HistoryEntry
			if n.IsCompleted() {
				entry = domain.NewHistoryEntry(uuid.NewString(), n)
			}
			if err := t.store.Negotiations().Import(ctx, n, entry); err != nil {
				return err
			}
			fmt.Fprintln(t.out, n.ID)
			return nil
		}),
	}
	importCmd.Flags().StringVarP(&inPath, "file", "f", "-", "snapshot file, - for stdin")

	var limit int
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show the campaign's record of completed negotiations",
		Args:  cobra.NoArgs,
		RunE: app.run(func(ctx context.Context, t *table, _ []string) error {
			entries, err := t.store.History().ListByCampaign(ctx, campaignID(app.Options.Campaign), limit)
			if err != nil {
				return err
			}
			return t.render(entries, func(w io.Writer) { writeHistory(w, entries) })
		}),
	}
	historyCmd.Flags().IntVar(&limit, "limit", 20, "maximum entries")

	rootCmd.AddCommand(exportCmd, importCmd, historyCmd)
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func signed(v int) string {
	if v > 0 {
		return "+" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}
