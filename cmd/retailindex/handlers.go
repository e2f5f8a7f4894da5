package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/jamespassby/retail-dashboard-final/internal/config"
	"github.com/jamespassby/retail-dashboard-final/internal/dataset"
	"github.com/jamespassby/retail-dashboard-final/internal/logging"
	"github.com/jamespassby/retail-dashboard-final/internal/scheduler"
	"github.com/jamespassby/retail-dashboard-final/internal/store"
	"github.com/jamespassby/retail-dashboard-final/pkg/alert"
	"github.com/jamespassby/retail-dashboard-final/pkg/detail"
	"github.com/jamespassby/retail-dashboard-final/pkg/rank"
	"github.com/jamespassby/retail-dashboard-final/pkg/score"
	"github.com/jamespassby/retail-dashboard-final/pkg/table"
	"go.uber.org/zap"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

// env bundles what every command needs.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	calc   *score.Calculator
	agg    *rank.Aggregator
}

func setup() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	calc := score.NewCalculator(cfg.Scoring.Params(), logger)
	return &env{
		cfg:    cfg,
		logger: logger,
		calc:   calc,
		agg:    rank.NewAggregator(calc),
	}, nil
}

func (e *env) close() {
	_ = e.logger.Sync()
}

func (e *env) openStore() (*store.SQLiteStore, error) {
	db, err := store.New(e.cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return db, nil
}

// loadBrands reads brands from the dataset file, or from the store when
// fromDB is set.
func (e *env) loadBrands(ctx context.Context, fromDB bool) ([]score.BrandMetrics, error) {
	if !fromDB {
		return dataset.Load(e.cfg.Dataset.Path)
	}

	db, err := e.openStore()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	brands, err := db.ListBrands(ctx)
	if err != nil {
		return nil, err
	}
	if len(brands) == 0 {
		return nil, errors.New("store is empty (run: retailindex import)")
	}
	return brands, nil
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

func (e *env) scheduler(db store.Store, datasetPath string) *scheduler.Scheduler {
	return scheduler.New(db, e.agg, buildAlertManager(e.cfg), e.logger, scheduler.Options{
		DatasetPath:   datasetPath,
		Interval:      e.cfg.Schedule.ParseImportInterval(),
		MinRankChange: e.cfg.Alerts.MinRankChange,
	})
}

func runImport(ctx context.Context, file string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	if file == "" {
		file = e.cfg.Dataset.Path
	}

	db, err := e.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := e.scheduler(db, file).RunOnce(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("import %s: %d brands ranked, %d movers", res.Import.ID, len(res.Rows), len(res.Movers))
	if res.Alerted {
		fmt.Print(" (alerted)")
	}
	fmt.Println()
	return nil
}

func runRank(ctx context.Context, opts rankOpts) error {
	key, err := table.ParseKey(opts.sortKey)
	if err != nil {
		return err
	}
	st := table.State{SortKey: key, Direction: table.DefaultDirection(key)}
	if opts.direction != "" {
		dir, err := table.ParseDirection(opts.direction)
		if err != nil {
			return err
		}
		st.Direction = dir
	}
	st = st.WithCategories(opts.categories...)

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	brands, err := e.loadBrands(ctx, opts.fromDB)
	if err != nil {
		return err
	}

	rows := hideUnranked(table.Visible(e.agg.BuildRows(brands), st), st, opts.all)
	if opts.limit > 0 && len(rows) > opts.limit {
		rows = rows[:opts.limit]
	}

	if opts.jsonOutput {
		return writeJSON(os.Stdout, rows)
	}
	if len(rows) == 0 {
		fmt.Println("no brands match")
		return nil
	}
	return writeRankTable(os.Stdout, rows)
}

// hideUnranked drops brands without a current rank unless a category filter
// is active or all is set.
func hideUnranked(rows []rank.Row, st table.State, all bool) []rank.Row {
	if all || len(st.Categories) > 0 {
		return rows
	}
	out := make([]rank.Row, 0, len(rows))
	for _, r := range rows {
		if r.CurrentRank != nil {
			out = append(out, r)
		}
	}
	return out
}

type brandOpts struct {
	jsonOutput bool
	fromDB     bool
	scoreType  string
}

func runBrand(ctx context.Context, name string, opts brandOpts) error {
	var only score.Type
	if opts.scoreType != "" {
		t, err := score.ParseType(opts.scoreType)
		if err != nil {
			return err
		}
		only = t
	}

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	brands, err := e.loadBrands(ctx, opts.fromDB)
	if err != nil {
		return err
	}
	m, ok := findBrand(brands, name)
	if !ok {
		return fmt.Errorf("brand %q not found", name)
	}

	d := detail.Build(m, e.calc, time.Now())
	if only != "" {
		series := d.Series.Get(only)
		if opts.jsonOutput {
			return writeJSON(os.Stdout, series)
		}
		return writeSeries(os.Stdout, d.Months, only, series)
	}
	if opts.jsonOutput {
		return writeJSON(os.Stdout, d)
	}

	var row *rank.Row
	rows := e.agg.BuildRows(brands)
	for i := range rows {
		if rows[i].BrandName == m.BrandName {
			row = &rows[i]
			break
		}
	}
	return writeDetail(os.Stdout, d, row)
}

// findBrand matches an exact name first, then case-insensitively, then by
// slug.
func findBrand(brands []score.BrandMetrics, name string) (score.BrandMetrics, bool) {
	for _, b := range brands {
		if b.BrandName == name {
			return b, true
		}
	}
	for _, b := range brands {
		if strings.EqualFold(b.BrandName, name) {
			return b, true
		}
	}
	slug := detail.Slug(name)
	for _, b := range brands {
		if slug != "" && detail.Slug(b.BrandName) == slug {
			return b, true
		}
	}
	return score.BrandMetrics{}, false
}

func runCategories() error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	brands, err := dataset.Load(e.cfg.Dataset.Path)
	if err != nil {
		return err
	}
	for _, c := range rank.Categories(brands) {
		fmt.Println(c)
	}
	return nil
}

func runHighlights() error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	brands, err := dataset.Load(e.cfg.Dataset.Path)
	if err != nil {
		return err
	}
	return writeHighlights(os.Stdout, e.agg.Highlights(brands), e.calc)
}

func runHistory(ctx context.Context, brand string, limit int) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	db, err := e.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	// Brands dropped from the dataset are no longer stored but keep their
	// snapshots, so fall back to the name as given.
	name := brand
	m, err := db.GetBrand(ctx, brand)
	switch {
	case err == nil:
		name = m.BrandName
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	snaps, err := db.RankHistory(ctx, name, limit)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		return fmt.Errorf("brand %q has no stored imports", brand)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IMPORTED\tRANK\tCHANGE\tTOTAL\tGROWTH\tHEAT")
	for _, s := range snaps {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ImportedAt.Format(time.RFC3339), fmtInt(s.CurrentRank), fmtChange(s.RankChange),
			fmtInt(s.CurrentTotal), fmtInt(s.CurrentGrowth), fmtInt(s.CurrentHeat))
	}
	return w.Flush()
}

func runDaemon() error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	db, err := e.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err = e.scheduler(db, e.cfg.Dataset.Path).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeRankTable(out io.Writer, rows []rank.Row) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tCHANGE\tBRAND\tCATEGORY\tGROWTH\tHEAT\tTOTAL")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			fmtInt(r.CurrentRank), fmtRankChange(r), r.BrandName, r.TopCategory,
			fmtInt(r.CurrentGrowth), fmtInt(r.CurrentHeat), fmtInt(r.CurrentTotal))
	}
	return w.Flush()
}

func writeDetail(out io.Writer, d detail.Detail, row *rank.Row) error {
	fmt.Fprintf(out, "%s", d.BrandName)
	if d.TopCategory != "" {
		fmt.Fprintf(out, " (%s", d.TopCategory)
		if d.SubCategory != "" {
			fmt.Fprintf(out, " / %s", d.SubCategory)
		}
		fmt.Fprint(out, ")")
	}
	fmt.Fprintf(out, "\nlatest month: %s\n", d.LatestMonth)
	if row != nil {
		fmt.Fprintf(out, "rank: %s (%s)\n", fmtInt(row.CurrentRank), fmtRankChange(*row))
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tCURRENT\tCHANGE\tBAND")
	for _, s := range d.Scores {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Type, fmtInt(s.Current), fmtChange(s.Change), s.Band)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "METRIC\tYOY %\tINDEX\tINDEX MOM %")
	for _, m := range d.Metrics {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Name, fmtFloat(m.YoY), fmtFloat(m.Index), fmtFloat(m.IndexChange))
	}
	if len(d.Months) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "MONTH\tGROWTH\tHEAT\tTOTAL")
		for i, month := range d.Months {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", month,
				fmtInt(d.Series.Growth.Scores[i]), fmtInt(d.Series.Heat.Scores[i]), fmtInt(d.Series.Total.Scores[i]))
		}
	}
	return w.Flush()
}

func writeSeries(out io.Writer, months []string, t score.Type, s score.Series) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "MONTH\t%s\tCHANGE\n", strings.ToUpper(string(t)))
	for i, month := range months {
		if i >= s.Len() {
			break
		}
		var change *int
		if i < len(s.Changes) {
			change = s.Changes[i]
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", month, fmtInt(s.Scores[i]), fmtChange(change))
	}
	return w.Flush()
}

func writeHighlights(out io.Writer, h rank.Highlights, calc *score.Calculator) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HIGHLIGHT\tBRAND\tCATEGORY\tHEAT\tGROWTH")
	line := func(label string, m *score.BrandMetrics) {
		if m == nil {
			fmt.Fprintf(w, "%s\t--\t\t--\t--\n", label)
			return
		}
		set := calc.ComputeAll(*m)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", label, m.BrandName, m.TopCategory,
			fmtInt(set.Heat.Latest()), fmtInt(set.Growth.Latest()))
	}
	line("hottest", h.Hottest)
	line("most consistent", h.MostConsistent)
	return w.Flush()
}

func fmtInt(v *int) string {
	if v == nil {
		return "--"
	}
	return fmt.Sprintf("%d", *v)
}

func fmtChange(v *int) string {
	if v == nil {
		return "--"
	}
	if *v > 0 {
		return fmt.Sprintf("+%d", *v)
	}
	return fmt.Sprintf("%d", *v)
}

// fmtRankChange prints "new" for brands without a previous rank.
func fmtRankChange(r rank.Row) string {
	if r.IsNew() {
		return "new"
	}
	return fmtChange(r.RankChange)
}

func fmtFloat(v *float64) string {
	if v == nil {
		return "--"
	}
	return fmt.Sprintf("%.1f", *v)
}
