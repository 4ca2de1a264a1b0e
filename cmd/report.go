/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/spotify-genre-tools/internal/catalog"
	"github.com/ademuri/spotify-genre-tools/internal/export"
	"github.com/ademuri/spotify-genre-tools/internal/genre"
	"github.com/ademuri/spotify-genre-tools/internal/lastfm"
	"github.com/ademuri/spotify-genre-tools/internal/pipeline"
	"github.com/ademuri/spotify-genre-tools/internal/spotify"
	"github.com/ademuri/spotify-genre-tools/internal/store"
)

type ReportConfig struct {
	DbPath       string
	User         string
	ClientID     string
	ClientSecret string
	RedirectURI  string

	Jobs      []string
	Playlists map[string]string

	Taxonomy    string
	MatchPolicy string
	PageSize    int
	TimeRange   string

	GenreSource   string
	LastFmAPIKey  string
	LastFmSecret  string
	GenreCacheTTL time.Duration

	OutputDir string
	YAMLPath  string
	Print     bool
	NoStore   bool

	EmailTo        string
	From           string
	SendgridAPIKey string
	DryRun         bool
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Fetches collections from Spotify and writes genre reports",
	Long: `Runs every selected job: fetches the collection, resolves artist genres,
classifies them into supergenres and writes the raw, match percentage and most
common genre tables. A failing job is reported and does not stop the others.

Jobs default to: saved_tracks, saved_albums, followed_artists, top_tracks,
top_artists, discover_weeklies, daily_mixes and release_radar. Extra playlist
groups can be added with --playlists name=regex.`,
	PreRunE: requireUser,
	Run: func(cmd *cobra.Command, args []string) {
		playlists, _ := cmd.Flags().GetStringToString("playlists")
		jobs, _ := cmd.Flags().GetStringSlice("jobs")

		config := ReportConfig{
			DbPath:         viper.GetString("database"),
			User:           viper.GetString("user"),
			ClientID:       viper.GetString("client_id"),
			ClientSecret:   viper.GetString("client_secret"),
			RedirectURI:    viper.GetString("redirect_uri"),
			Jobs:           jobs,
			Playlists:      playlists,
			Taxonomy:       viper.GetString("taxonomy"),
			MatchPolicy:    viper.GetString("match_policy"),
			PageSize:       viper.GetInt("page_size"),
			TimeRange:      viper.GetString("time_range"),
			GenreSource:    viper.GetString("genre_source"),
			LastFmAPIKey:   viper.GetString("lastfm_api_key"),
			LastFmSecret:   viper.GetString("lastfm_secret"),
			GenreCacheTTL:  viper.GetDuration("genre_cache_ttl"),
			OutputDir:      viper.GetString("output"),
			YAMLPath:       viper.GetString("yaml"),
			Print:          viper.GetBool("print"),
			NoStore:        viper.GetBool("no_store"),
			EmailTo:        viper.GetString("email"),
			From:           viper.GetString("from"),
			SendgridAPIKey: viper.GetString("sendgrid_api_key"),
			DryRun:         viper.GetBool("dryRun"),
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		err := runReport(ctx, config)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringSlice("jobs", nil, "Jobs to run (default all)")
	reportCmd.Flags().StringToString("playlists", nil, "Extra playlist groups as name=regex, matched against whole playlist names")

	var pageSize int
	reportCmd.Flags().IntVar(&pageSize, "page_size", 50, "Items per request")
	viper.BindPFlag("page_size", reportCmd.Flags().Lookup("page_size"))

	var timeRange string
	reportCmd.Flags().StringVar(&timeRange, "time_range", "medium_term", "Window for top tracks and artists: short_term, medium_term or long_term")
	viper.BindPFlag("time_range", reportCmd.Flags().Lookup("time_range"))

	var genreSource string
	reportCmd.Flags().StringVar(&genreSource, "genre_source", "spotify", "Where track genres come from: spotify or lastfm")
	viper.BindPFlag("genre_source", reportCmd.Flags().Lookup("genre_source"))

	var lastFmAPIKey string
	reportCmd.Flags().StringVar(&lastFmAPIKey, "lastfm_api_key", "", "last.fm API key, for --genre_source=lastfm")
	viper.BindPFlag("lastfm_api_key", reportCmd.Flags().Lookup("lastfm_api_key"))

	var lastFmSecret string
	reportCmd.Flags().StringVar(&lastFmSecret, "lastfm_secret", "", "last.fm secret, for --genre_source=lastfm")
	viper.BindPFlag("lastfm_secret", reportCmd.Flags().Lookup("lastfm_secret"))

	var genreCacheTTL time.Duration
	reportCmd.Flags().DurationVar(&genreCacheTTL, "genre_cache_ttl", 0, "Keep artist genres in the database for this long across runs (0 disables)")
	viper.BindPFlag("genre_cache_ttl", reportCmd.Flags().Lookup("genre_cache_ttl"))

	var output string
	reportCmd.Flags().StringVarP(&output, "output", "o", "./output", "Directory for CSV tables (empty disables)")
	viper.BindPFlag("output", reportCmd.Flags().Lookup("output"))

	var yamlPath string
	reportCmd.Flags().StringVar(&yamlPath, "yaml", "", "Also write all tables as one YAML document to this file, - for stdout")
	viper.BindPFlag("yaml", reportCmd.Flags().Lookup("yaml"))

	var printTables bool
	reportCmd.Flags().BoolVar(&printTables, "print", false, "Print tables to stdout")
	viper.BindPFlag("print", reportCmd.Flags().Lookup("print"))

	var noStore bool
	reportCmd.Flags().BoolVar(&noStore, "no_store", false, "Do not record the run and its tables in the database")
	viper.BindPFlag("no_store", reportCmd.Flags().Lookup("no_store"))

	var email string
	reportCmd.Flags().StringVar(&email, "email", "", "Email the tables to this address")
	viper.BindPFlag("email", reportCmd.Flags().Lookup("email"))

	var dryRun bool
	reportCmd.Flags().BoolVarP(&dryRun, "dry_run", "n", false, "When true, just print instead of emailing")
	viper.BindPFlag("dryRun", reportCmd.Flags().Lookup("dry_run"))
}

func newGenreLookup(config ReportConfig, client *spotify.Client, st *store.Store, logger *log.Logger) (genre.Lookup, error) {
	var lookup genre.Lookup
	switch config.GenreSource {
	case "", "spotify":
		lookup = client
	case "lastfm":
		if config.LastFmAPIKey == "" || config.LastFmSecret == "" {
			return nil, fmt.Errorf("lastfm_api_key and lastfm_secret must be set for --genre_source=lastfm")
		}
		lookup = lastfm.New(config.LastFmAPIKey, config.LastFmSecret, lastfm.WithLogger(logger))
	default:
		return nil, fmt.Errorf("unknown genre_source %q, want spotify or lastfm", config.GenreSource)
	}

	if config.GenreCacheTTL > 0 {
		lookup = store.CachedLookup{Store: st, Next: lookup, MaxAge: config.GenreCacheTTL}
	}
	return lookup, nil
}

// newSink assembles the outputs of a run. The returned func closes files the
// sinks write to.
func newSink(config ReportConfig, st *store.Store, runID string) (export.Sink, func() error, error) {
	var sinks export.Multi
	closeOutput := func() error { return nil }

	if config.OutputDir != "" {
		sinks = append(sinks, export.CSVSink{Dir: config.OutputDir})
	}
	if runID != "" {
		sinks = append(sinks, export.StoreSink{Store: st, RunID: runID})
	}
	if config.Print {
		sinks = append(sinks, export.TableSink{W: os.Stdout})
	}
	if config.YAMLPath == "-" {
		sinks = append(sinks, &export.YAMLSink{W: os.Stdout})
	} else if config.YAMLPath != "" {
		f, err := os.Create(config.YAMLPath)
		if err != nil {
			return nil, nil, fmt.Errorf("creating %s: %w", config.YAMLPath, err)
		}
		closeOutput = f.Close
		sinks = append(sinks, &export.YAMLSink{W: f})
	}
	if config.EmailTo != "" {
		if config.From == "" && !config.DryRun {
			return nil, nil, fmt.Errorf("required flag(s) \"from\" not set")
		}
		sinks = append(sinks, &export.EmailSink{
			Mailer: export.SendgridMailer{
				APIKey: config.SendgridAPIKey,
				From:   config.From,
				To:     config.EmailTo,
			},
			Subject: fmt.Sprintf("Genre report for %s %s", config.User, time.Now().Format("2006-01-02")),
			DryRun:  config.DryRun,
			Out:     os.Stdout,
		})
	}

	if len(sinks) == 0 {
		return nil, nil, fmt.Errorf("no output selected, set --output, --yaml, --print, --email or drop --no_store")
	}
	return sinks, closeOutput, nil
}

func runReport(ctx context.Context, config ReportConfig) error {
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	logger = logger.With("user", config.User)

	if err := requireSpotifyCredentials(); err != nil {
		return err
	}

	taxonomy, err := loadTaxonomy(config.Taxonomy, logger)
	if err != nil {
		return err
	}
	policy, err := genre.ParseMatchPolicy(config.MatchPolicy)
	if err != nil {
		return err
	}
	timeRange, err := spotify.ParseTimeRange(config.TimeRange)
	if err != nil {
		return err
	}
	jobs, err := selectJobs(config.Jobs, config.Playlists)
	if err != nil {
		return err
	}

	st, err := openStore(config.DbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	token, err := st.GetToken(config.User)
	if err != nil {
		return err
	}
	if token == nil {
		return fmt.Errorf("no Spotify token for %q, run authenticate first", config.User)
	}

	auth := spotify.NewAuthenticator(config.ClientID, config.ClientSecret, config.RedirectURI)
	client := spotify.New(auth.Client(ctx, token), []spotify.Option{
		spotify.WithTimeRange(timeRange),
		spotify.WithLogger(logger),
	})

	lookup, err := newGenreLookup(config, client, st, logger)
	if err != nil {
		return err
	}
	resolver := genre.NewResolver(lookup)
	fetcher := catalog.NewFetcher(client, resolver, logger)

	var runID string
	if !config.NoStore {
		runID, err = st.CreateRun(config.User, time.Now())
		if err != nil {
			return err
		}
		logger.Info("Started run", "run", runID)
	}

	sink, closeOutput, err := newSink(config, st, runID)
	if err != nil {
		if runID != "" {
			st.FinishRun(runID, time.Now(), err)
		}
		return err
	}
	defer closeOutput()

	runner := pipeline.NewRunner(fetcher, sink, pipeline.Config{
		PageSize:   config.PageSize,
		Classifier: genre.Classifier{Taxonomy: taxonomy, Policy: policy},
	}, logger)
	result, runErr := runner.Run(ctx, jobs)

	hits, lookups := resolver.Stats()
	logger.Info("Run finished", "jobs", len(result.Jobs), "failed", len(result.Failed()), "cache_hits", hits, "lookups", lookups)

	if runID != "" {
		if err := st.FinishRun(runID, time.Now(), runErr); err != nil {
			logger.Error("Recording run", "err", err)
		}
	}
	if err := st.SetLastRun(config.User, time.Now()); err != nil {
		logger.Error("Recording last run", "err", err)
	}

	// The token may have been refreshed during the run.
	if refreshed, err := client.Token(); err == nil && refreshed != nil && refreshed.AccessToken != token.AccessToken {
		if err := st.SaveToken(config.User, refreshed); err != nil {
			logger.Error("Saving refreshed token", "err", err)
		}
	}

	return runErr
}
