// Package warehouse is the optional BigQuery sink: it records the document,
// each extraction run with its outcome, and the consolidated transactions.
// The pipeline produces its CSV artifact regardless; warehouse failures
// degrade to warnings.
package warehouse

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"
)

// Run statuses.
const (
	StatusRunning = "RUNNING"
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// Client wraps a BigQuery client scoped to one dataset.
type Client struct {
	bq      *bigquery.Client
	dataset string
}

// NewClient connects to BigQuery for the given project and dataset.
func NewClient(ctx context.Context, project, dataset string) (*Client, error) {
	bq, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("warehouse: bigquery client: %w", err)
	}
	return &Client{bq: bq, dataset: dataset}, nil
}

// Close releases the underlying client.
func (c *Client) Close() error {
	return c.bq.Close()
}

// DocumentRow is one ingested statement document.
type DocumentRow struct {
	DocumentID       string    `bigquery:"document_id"`
	SourceURI        string    `bigquery:"source_uri"`
	OriginalFilename string    `bigquery:"original_filename"`
	PageCount        int64     `bigquery:"page_count"`
	UploadTS         time.Time `bigquery:"upload_ts"`
}

// RunRow is one extraction run over a document.
type RunRow struct {
	RunID      string                 `bigquery:"run_id"`
	DocumentID string                 `bigquery:"document_id"`
	ModelName  string                 `bigquery:"model_name"`
	StartedTS  time.Time              `bigquery:"started_ts"`
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"`
	Status     string                 `bigquery:"status"`
	ErrorMsg   string                 `bigquery:"error_message"`

	PagesTotal   bigquery.NullInt64 `bigquery:"pages_total"`
	PagesSkipped bigquery.NullInt64 `bigquery:"pages_skipped"`
}

// TransactionRow is one consolidated transaction. Fields outside the
// canonical set travel in Extra as JSON, since every statement defines its
// own column schema.
type TransactionRow struct {
	TransactionID int64  `bigquery:"transaction_id"`
	DocumentID    string `bigquery:"document_id"`
	RunID         string `bigquery:"run_id"`

	TransactionDate bigquery.NullDate   `bigquery:"transaction_date"`
	Description     bigquery.NullString `bigquery:"description"`

	Debit   *big.Rat `bigquery:"debit"`
	Credit  *big.Rat `bigquery:"credit"`
	Balance *big.Rat `bigquery:"running_balance"`

	Reference bigquery.NullString `bigquery:"reference"`
	Extra     bigquery.NullJSON   `bigquery:"extra"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

// FindDocumentBySourceURI returns an existing document row for the URI, or
// nil when the document has not been seen before.
func (c *Client) FindDocumentBySourceURI(ctx context.Context, uri string) (*DocumentRow, error) {
	q := c.bq.Query(fmt.Sprintf(`
		SELECT document_id, source_uri, original_filename, page_count, upload_ts
		FROM %s.documents
		WHERE source_uri = @source_uri
		ORDER BY upload_ts DESC
		LIMIT 1
	`, c.dataset))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "source_uri", Value: uri},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("warehouse: query documents: %w", err)
	}

	var row DocumentRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("warehouse: read document row: %w", err)
	}
	return &row, nil
}

// InsertDocument registers a document.
func (c *Client) InsertDocument(ctx context.Context, row *DocumentRow) error {
	ins := c.bq.Dataset(c.dataset).Table("documents").Inserter()
	if err := ins.Put(ctx, row); err != nil {
		return fmt.Errorf("warehouse: insert document: %w", err)
	}
	return nil
}

// StartRun inserts a run row with status RUNNING.
func (c *Client) StartRun(ctx context.Context, row *RunRow) error {
	row.Status = StatusRunning
	if row.StartedTS.IsZero() {
		row.StartedTS = time.Now()
	}
	ins := c.bq.Dataset(c.dataset).Table("extraction_runs").Inserter()
	if err := ins.Put(ctx, row); err != nil {
		return fmt.Errorf("warehouse: insert run: %w", err)
	}
	return nil
}

// FinishRun updates a run's terminal status and its skipped-page count.
// runErr may be nil for success.
func (c *Client) FinishRun(ctx context.Context, runID, status string, pagesSkipped int, runErr error) error {
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
		const maxLen = 2000
		if len(errMsg) > maxLen {
			errMsg = errMsg[:maxLen]
		}
	}

	q := c.bq.Query(fmt.Sprintf(`
		UPDATE %s.extraction_runs
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message,
		    pages_skipped = @pages_skipped
		WHERE run_id = @run_id
	`, c.dataset))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: status},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "pages_skipped", Value: int64(pagesSkipped)},
		{Name: "run_id", Value: runID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("warehouse: update run: %w", err)
	}
	st, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("warehouse: wait for run update: %w", err)
	}
	if err := st.Err(); err != nil {
		return fmt.Errorf("warehouse: run update job: %w", err)
	}
	return nil
}

// InsertTransactions streams the consolidated transactions.
func (c *Client) InsertTransactions(ctx context.Context, rows []*TransactionRow) error {
	if len(rows) == 0 {
		return nil
	}
	ins := c.bq.Dataset(c.dataset).Table("transactions").Inserter()
	if err := ins.Put(ctx, rows); err != nil {
		return fmt.Errorf("warehouse: insert transactions: %w", err)
	}
	return nil
}

// NullDateFromISO converts a YYYY-MM-DD string to a nullable civil date.
func NullDateFromISO(iso string) bigquery.NullDate {
	if iso == "" {
		return bigquery.NullDate{}
	}
	d, err := civil.ParseDate(iso)
	if err != nil {
		return bigquery.NullDate{}
	}
	return bigquery.NullDate{Date: d, Valid: true}
}
