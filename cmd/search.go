package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobboard-assistant/internal/ai"
	"github.com/spigell/jobboard-assistant/internal/ai/gemini"
	"github.com/spigell/jobboard-assistant/internal/filtering"
	"github.com/spigell/jobboard-assistant/internal/jobs"
	"github.com/spigell/jobboard-assistant/internal/utils"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Filter and rank job postings from a file with a free-form query",
	RunE:  search,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringP("query", "q", "", "free-form search query")
	searchCmd.Flags().String("jobs", "", "json file with postings")
	searchCmd.Flags().String("skills", "", "comma separated candidate skills used for ranking")
	searchCmd.Flags().StringP("exclude-file", "e", "", "file with postings to exclude. Default is unset.")
	searchCmd.Flags().StringSlice("exclude-company", nil, "company to exclude, repeatable")
	searchCmd.Flags().StringSlice("disable-step", nil, "filter step to skip, repeatable")
	searchCmd.Flags().Bool("no-ai", false, "split the query into keywords instead of asking the model")
	searchCmd.Flags().Bool("remember", false, "append the found postings to the exclude file")
	searchCmd.Flags().Bool("dump", false, "dump the found postings to a temporary file")
	searchCmd.Flags().Bool("report", false, "log the found postings grouped by company")

	searchCmd.MarkFlagRequired("jobs")
}

func search(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	config, err := getConfig()
	if err != nil {
		return err
	}

	jobsFile, _ := flags.GetString("jobs")
	query, _ := flags.GetString("query")
	skills, _ := flags.GetString("skills")
	excludeFile, _ := flags.GetString("exclude-file")
	excludeCompanies, _ := flags.GetStringSlice("exclude-company")
	disabled, _ := flags.GetStringSlice("disable-step")
	noAI, _ := flags.GetBool("no-ai")

	postings, err := jobs.LoadFromFile(jobsFile)
	if err != nil {
		return fmt.Errorf("load postings from %s: %w", jobsFile, err)
	}
	log.Info("loaded postings", zap.String("file", jobsFile), zap.Int("count", postings.Len()))

	var filters *ai.SearchFilters
	if noAI {
		filters = gemini.KeywordFilters(query)
	} else if filters, err = parseQuery(cmd, config, log, query); err != nil {
		return err
	}

	if log.Core().Enabled(zap.DebugLevel) {
		pretty, _ := json.MarshalIndent(filters, "", "  ")
		log.Debug(fmt.Sprintf("searching with filters: \n %s", pretty))
	}

	steps := filtering.DefaultSteps()
	for _, name := range disabled {
		filtering.DisableByName(steps, name, "disabled by flag")
	}

	ranked, err := filtering.Search(ctx, &filtering.Config{
		Filters:           filters,
		CandidateSkills:   utils.SplitList(skills),
		MinimumMatchScore: config.Search.MinimumMatchScore,
		ExcludeCompanies:  excludeCompanies,
		ExcludeFile:       excludeFile,
	}, log, steps, postings)
	if err != nil {
		return fmt.Errorf("filtering failed: %w", err)
	}

	for _, status := range filtering.Describe(steps) {
		log.Debug("filter status",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
		)
	}

	found := &jobs.Postings{Items: make([]*jobs.Posting, 0, len(ranked))}
	for _, posting := range ranked {
		found.Items = append(found.Items, posting.Posting)
	}
	log.Info("search finished", zap.Int("found", found.Len()))

	if report, _ := flags.GetBool("report"); report {
		pretty, _ := json.MarshalIndent(found.ReportByCompany(), "", "  ")
		log.Info(string(pretty), zap.Int("postings count", found.Len()))
	}

	if dump, _ := flags.GetBool("dump"); dump {
		filename, err := jobs.DumpToTmpFile(ranked)
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		log.Info("dumping result to file", zap.String("filename", filename))
	}

	if remember, _ := flags.GetBool("remember"); remember {
		if err := rememberPostings(excludeFile, found); err != nil {
			return err
		}
		log.Info("postings appended to exclude file", zap.String("file", excludeFile), zap.Int("count", found.Len()))
	}

	return printJSON(cmd.OutOrStdout(), ranked)
}

// parseQuery asks the model for filters and falls back to keywords when no model is configured.
func parseQuery(cmd *cobra.Command, config *Config, log *zap.Logger, query string) (*ai.SearchFilters, error) {
	assistant := optionalAssistant(cmd.Context(), config, log)
	if assistant == nil {
		return gemini.KeywordFilters(query), nil
	}

	filters, err := assistant.ParseSearch(cmd.Context(), query)
	if err != nil {
		return nil, fmt.Errorf("parse search query: %w", err)
	}
	return filters, nil
}

func rememberPostings(path string, found *jobs.Postings) error {
	if path == "" {
		return fmt.Errorf("--remember needs --exclude-file")
	}

	excluded, err := jobs.LoadExcludedFromFile(path)
	if err != nil {
		return fmt.Errorf("load exclude file: %w", err)
	}

	excluded.Append(found.ToExcluded())

	if err := excluded.ToFile(path); err != nil {
		return fmt.Errorf("write exclude file: %w", err)
	}
	return nil
}
