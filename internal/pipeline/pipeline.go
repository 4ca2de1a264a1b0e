// Package pipeline runs collection jobs end to end: fetch, classify, aggregate
// and export.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ademuri/spotify-genre-tools/internal/analysis"
	"github.com/ademuri/spotify-genre-tools/internal/catalog"
	"github.com/ademuri/spotify-genre-tools/internal/export"
	"github.com/ademuri/spotify-genre-tools/internal/genre"
)

// CombinedTable is the table that merges the unclassified genre rankings of
// all endpoint jobs.
const CombinedTable = "flourish/all_mcg"

// Job names one collection set. Endpoint jobs read a single listing labelled
// with the job name; playlist jobs read every playlist whose name matches
// Filter, each labelled with its playlist name.
type Job struct {
	Name     string
	Endpoint catalog.Endpoint
	Filter   string
}

func (j Job) IsPlaylistGroup() bool {
	return j.Endpoint == catalog.Playlists
}

// DefaultJobs are the collections a report covers unless told otherwise.
func DefaultJobs() []Job {
	return []Job{
		{Name: "saved_tracks", Endpoint: catalog.SavedTracks},
		{Name: "saved_albums", Endpoint: catalog.SavedAlbums},
		{Name: "followed_artists", Endpoint: catalog.FollowedArtists},
		{Name: "top_tracks", Endpoint: catalog.TopTracks},
		{Name: "top_artists", Endpoint: catalog.TopArtists},
		{Name: "discover_weeklies", Endpoint: catalog.Playlists, Filter: "^DW.*$"},
		{Name: "daily_mixes", Endpoint: catalog.Playlists, Filter: "^Daily.*$"},
		{Name: "release_radar", Endpoint: catalog.Playlists, Filter: "^Release.*$"},
	}
}

// ValidateJobs rejects empty or duplicate job names, which would overwrite
// each other's tables.
func ValidateJobs(jobs []Job) error {
	if len(jobs) == 0 {
		return fmt.Errorf("no jobs to run")
	}
	seen := make(map[string]bool)
	for _, j := range jobs {
		if strings.TrimSpace(j.Name) == "" {
			return fmt.Errorf("job with empty name")
		}
		if seen[j.Name] {
			return fmt.Errorf("duplicate job %q", j.Name)
		}
		seen[j.Name] = true
	}
	return nil
}

type Config struct {
	PageSize   int
	Classifier genre.Classifier
	// TopGenres is the length of ranked genre tables.
	TopGenres int
	// TopCandidates is how many ranked genres are considered for a single
	// most common genre.
	TopCandidates int
	OtherLabel    string
}

func (c Config) withDefaults() Config {
	if c.PageSize <= 0 {
		c.PageSize = 50
	}
	if c.TopGenres <= 0 {
		c.TopGenres = analysis.DefaultTopGenres
	}
	if c.TopCandidates <= 0 {
		c.TopCandidates = analysis.DefaultTopCandidates
	}
	if c.OtherLabel == "" {
		c.OtherLabel = analysis.DefaultOtherLabel
	}
	return c
}

type JobResult struct {
	Job     Job
	Records int
	Tables  []string
	Err     error
}

type Result struct {
	Jobs []JobResult
	// Combined is set when the combined genre table was written.
	Combined bool
}

func (r Result) Failed() []JobResult {
	var failed []JobResult
	for _, j := range r.Jobs {
		if j.Err != nil {
			failed = append(failed, j)
		}
	}
	return failed
}

type Runner struct {
	fetcher *catalog.Fetcher
	sink    export.Sink
	config  Config
	log     *log.Logger
}

func NewRunner(fetcher *catalog.Fetcher, sink export.Sink, config Config, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		fetcher: fetcher,
		sink:    sink,
		config:  config.withDefaults(),
		log:     logger,
	}
}

// Run executes jobs in order. A failing job is logged and recorded but does not
// stop the others. The returned error lists the failed jobs, and also reports
// a failure to flush the sink.
func (r *Runner) Run(ctx context.Context, jobs []Job) (Result, error) {
	if err := ValidateJobs(jobs); err != nil {
		return Result{}, err
	}

	var result Result
	var sources []analysis.SourceGenres
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			result.Jobs = append(result.Jobs, JobResult{Job: job, Err: err})
			continue
		}

		logger := r.log.With("job", job.Name)
		logger.Info("Running job")
		jr, mcg := r.runJob(ctx, job)
		if jr.Err != nil {
			logger.Error("Job failed", "err", jr.Err)
		} else {
			logger.Info("Job done", "records", jr.Records, "tables", len(jr.Tables))
			if !job.IsPlaylistGroup() {
				sources = append(sources, analysis.SourceGenres{Source: job.Name, Genres: mcg})
			}
		}
		result.Jobs = append(result.Jobs, jr)
	}

	var errs []error
	if len(sources) > 0 {
		if err := r.sink.WriteTable(analysis.CombineGenreTables(CombinedTable, sources)); err != nil {
			errs = append(errs, fmt.Errorf("writing %s: %w", CombinedTable, err))
		} else {
			result.Combined = true
		}
	}

	if err := export.Flush(r.sink); err != nil {
		errs = append(errs, fmt.Errorf("flushing output: %w", err))
	}

	if failed := result.Failed(); len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for _, f := range failed {
			names = append(names, f.Job.Name)
		}
		errs = append(errs, fmt.Errorf("%d of %d jobs failed: %s", len(failed), len(jobs), strings.Join(names, ", ")))
	}
	return result, errors.Join(errs...)
}

func (r *Runner) collections(ctx context.Context, job Job) ([]catalog.Collection, error) {
	if job.IsPlaylistGroup() {
		return r.fetcher.FetchCollections(ctx, r.config.PageSize, job.Filter)
	}
	items, err := r.fetcher.Fetch(ctx, job.Endpoint, r.config.PageSize)
	if err != nil {
		return nil, err
	}
	return []catalog.Collection{{Label: job.Name, Items: items}}, nil
}

// runJob builds every table of a job before writing any, so a fetch failure
// leaves no output. A sink error stops the job at that table; tables written
// before it stay in the sinks and are listed in JobResult.Tables. It also
// returns the unclassified genre ranking for the combined table.
func (r *Runner) runJob(ctx context.Context, job Job) (JobResult, []analysis.GenreCount) {
	jr := JobResult{Job: job}

	collections, err := r.collections(ctx, job)
	if err != nil {
		jr.Err = err
		return jr, nil
	}
	records := analysis.Classify(collections, r.config.Classifier)
	jr.Records = len(records)

	tables := []export.Table{analysis.RawTable(job.Name, records)}
	var mcg []analysis.GenreCount
	if job.IsPlaylistGroup() {
		tables = append(tables,
			analysis.LabelGenreTable(job.Name+"_most_common_genres", analysis.MostCommonGenreByLabel(records, r.config.TopCandidates)),
			analysis.MatchTable(job.Name+"_match_percentages", analysis.MatchPercentages(records)),
		)
	} else {
		mcg = analysis.MostCommonGenres(analysis.Unclassified(records), r.config.TopGenres)
		tables = append(tables,
			analysis.ShareTable("flourish/"+job.Name+"_pctg", analysis.SupergenreShares(records, r.config.Classifier.Taxonomy, r.config.OtherLabel)),
			analysis.GenreTable("flourish/"+job.Name+"_mcg", mcg),
		)
	}

	for _, t := range tables {
		if err := r.sink.WriteTable(t); err != nil {
			jr.Err = fmt.Errorf("writing %s: %w", t.Name, err)
			return jr, nil
		}
		jr.Tables = append(jr.Tables, t.Name)
	}
	return jr, mcg
}
