// Package dispatcher fans a URL list out over a bounded set of
// concurrent fetches and persists whatever succeeded.
package dispatcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Panahifarah/kalpak/internal/config"
	"github.com/Panahifarah/kalpak/internal/fetcher"
	"github.com/Panahifarah/kalpak/internal/output"
	"github.com/Panahifarah/kalpak/internal/storage"
	"github.com/Panahifarah/kalpak/internal/utils"
)

type result struct {
	url  string
	body []byte
	err  error
}

// partition splits urls into fetchable and skipped sets. Invalid URLs
// never reach the fetcher.
func partition(urls []string) (valid, invalid []string) {
	for _, u := range urls {
		if utils.IsValidURL(u) {
			valid = append(valid, u)
		} else {
			invalid = append(invalid, u)
		}
	}
	return valid, invalid
}

// Run fetches every valid URL with at most settings.MaxConnections
// requests in flight and hands the successes to storage. Per-URL
// failures never abort the run; whatever succeeded is persisted.
func Run(ctx context.Context, urls []string, settings config.Settings) {
	log := utils.GetLogger("dispatcher")
	valid, invalid := partition(urls)
	for _, u := range invalid {
		log.Warn().Str("url", u).Msg("Invalid URL skipped")
		output.PrintWarning(fmt.Sprintf("Invalid URL skipped: %s", u))
	}
	log.Info().
		Int("total", len(urls)).
		Int("valid", len(valid)).
		Int("maxConnections", settings.MaxConnections).
		Int("retries", settings.Retries).
		Msg("Initiating fetch run")

	f := fetcher.New(fetcher.Config{MaxConnections: settings.MaxConnections})
	resultCh := make(chan result)
	var wg sync.WaitGroup
	for _, u := range valid {
		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			jobLog := log.With().Str("job", uuid.NewString()[:8]).Str("url", target).Logger()
			jobLog.Debug().Msg("Job started")
			body, err := f.Fetch(ctx, target, settings.Retries, settings.Resume)
			if err != nil {
				jobLog.Error().Err(err).Msg("Job failed")
			} else {
				jobLog.Debug().Int("size", len(body)).Msg("Job finished")
			}
			resultCh <- result{url: target, body: body, err: err}
		}(u)
	}
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// Single collection point: only this loop touches the result set,
	// keyed by the originally requested URL.
	results := make(map[string][]byte)
	failed := 0
	for r := range resultCh {
		if r.err != nil {
			failed++
			output.PrintError(fmt.Sprintf("Failed to fetch content from %s", r.url))
			continue
		}
		results[r.url] = r.body
		output.PrintSuccess(fmt.Sprintf("Fetched %s (%s)", r.url, utils.FormatBytes(uint64(len(r.body)))))
	}

	if err := storage.Save(results, settings.OutputDir); err != nil {
		log.Error().Err(err).Str("dir", settings.OutputDir).Msg("Persistence step failed")
		output.PrintError(fmt.Sprintf("Failed to create directory: %s", settings.OutputDir))
	}
	output.PrintRunSummary(len(results), failed, len(invalid))
}
