package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/amishk599/jobharvest/internal/fetch"
	"github.com/amishk599/jobharvest/internal/model"
)

// Ensure SlackReporter implements model.Reporter.
var _ model.Reporter = (*SlackReporter)(nil)

// SlackReporter posts the run summary to a Slack channel via Incoming Webhooks.
type SlackReporter struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
	sleep      func(time.Duration)
}

// NewSlackReporter returns a reporter that posts one Block Kit message per run.
func NewSlackReporter(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackReporter {
	return &SlackReporter{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
		sleep:      time.Sleep,
	}
}

// Report sends the summary. A 429 is retried once after the Retry-After delay.
func (s *SlackReporter) Report(sum model.RunSummary) error {
	body, err := json.Marshal(buildPayload(sum))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(body)
	if err != nil {
		return err
	}

	if status == http.StatusTooManyRequests {
		if retryAfter <= 0 {
			retryAfter = time.Second
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after", retryAfter)
		s.sleep(retryAfter)

		status, _, err = s.post(body)
		if err != nil {
			return fmt.Errorf("retry: %w", err)
		}
		if status != http.StatusOK {
			return &model.HTTPError{StatusCode: status, Err: fmt.Errorf("slack returned %d on retry", status)}
		}
		s.logger.Info("slack report sent", "retried", true)
		return nil
	}

	if status != http.StatusOK {
		return &model.HTTPError{StatusCode: status, Err: fmt.Errorf("slack returned %d", status)}
	}
	s.logger.Info("slack report sent")
	return nil
}

func (s *SlackReporter) post(body []byte) (int, time.Duration, error) {
	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, fetch.ParseRetryAfter(resp.Header.Get("Retry-After")), nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SendTestMessage sends a sample summary to verify the integration works.
func SendTestMessage(r model.Reporter) error {
	now := time.Now()
	return r.Report(model.RunSummary{
		StartedAt:       now.Add(-90 * time.Second),
		FinishedAt:      now,
		Crawled:         3,
		CrawledBySource: map[model.Source]int{model.SourceKeejob: 2, model.SourceOptioncarriere: 1},
		Kept:            3,
		DryRun:          true,
	})
}

func buildPayload(s model.RunSummary) slackPayload {
	title := "Job harvest finished"
	if s.DryRun {
		title += " (dry run)"
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: title},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Crawled:*\n%d", s.Crawled)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Crawl failures:*\n%d fetch, %d extraction", s.FetchFailures, s.ExtractionFailures)},
			},
		},
	}

	if s.EnrichmentEnabled {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Enriched:*\n%d", s.Enriched)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Enrichment failures:*\n%d service, %d format", s.ServiceFailures, s.FormatFailures)},
			},
		})
	}

	blocks = append(blocks, slackBlock{
		Type: "section",
		Fields: []slackText{
			{Type: "mrkdwn", Text: fmt.Sprintf("*Kept:*\n%d", s.Kept)},
			{Type: "mrkdwn", Text: fmt.Sprintf("*Discarded:*\n%d duplicates, %d unsupported", s.Discarded, s.Unsupported)},
		},
	})

	var parts []string
	for _, src := range slices.Sorted(maps.Keys(s.CrawledBySource)) {
		parts = append(parts, fmt.Sprintf("%s: %d", src, s.CrawledBySource[src]))
	}
	parts = append(parts, "took "+s.Duration().Round(time.Second).String())
	blocks = append(blocks,
		slackBlock{
			Type:     "context",
			Elements: []slackText{{Type: "mrkdwn", Text: strings.Join(parts, "  •  ")}},
		},
		slackBlock{Type: "divider"},
	)

	return slackPayload{Blocks: blocks}
}
