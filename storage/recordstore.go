package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"auctionpipe/config"
)

// ErrStoreRejected is returned when the web app answers 200 but ok=false.
var ErrStoreRejected = errors.New("record store rejected request")

// RecordStore is the HTTP client for the tabular web-app backend. One
// endpoint serves every table; rows are flat string maps. The store offers
// no transactions and no delete action — callers own retry and dedup.
type RecordStore struct {
	url    string
	token  string
	client *http.Client
}

type storeRequest struct {
	Token     string              `json:"token"`
	Action    string              `json:"action"`
	SheetName string              `json:"sheet_name,omitempty"`
	Rows      []map[string]string `json:"rows,omitempty"`
	RowData   map[string]string   `json:"row_data,omitempty"`
	RowIndex  *int                `json:"row_index,omitempty"`
}

type storeResponse struct {
	OK    bool                `json:"ok"`
	Rows  []map[string]string `json:"rows,omitempty"`
	Error string              `json:"error,omitempty"`
}

func NewRecordStore(cfg *config.RecordStoreConfig, client *http.Client) *RecordStore {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &RecordStore{
		url:    cfg.WebAppURL,
		token:  cfg.Token,
		client: client,
	}
}

// Read returns every row of the named sheet, in sheet order.
func (s *RecordStore) Read(ctx context.Context, sheet string) ([]map[string]string, error) {
	resp, err := s.do(ctx, storeRequest{
		Token:     s.token,
		Action:    "read",
		SheetName: sheet,
	})
	if err != nil {
		return nil, err
	}
	return resp.Rows, nil
}

// Append adds rows to the named sheet. No idempotency: re-appending the
// same rows duplicates them.
func (s *RecordStore) Append(ctx context.Context, sheet string, rows []map[string]string) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := s.do(ctx, storeRequest{
		Token:     s.token,
		Action:    "add",
		SheetName: sheet,
		Rows:      rows,
	})
	return err
}

// UpdateRow replaces the data row at index (zero-based, as returned by
// Read) in the named sheet.
func (s *RecordStore) UpdateRow(ctx context.Context, sheet string, index int, row map[string]string) error {
	_, err := s.do(ctx, storeRequest{
		Token:     s.token,
		Action:    "update_row",
		SheetName: sheet,
		RowIndex:  &index,
		RowData:   row,
	})
	return err
}

func (s *RecordStore) do(ctx context.Context, reqBody storeRequest) (*storeResponse, error) {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("record store %s: %w", reqBody.Action, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("record store %s: status %d: %s",
			reqBody.Action, httpResp.StatusCode, truncate(body, 300))
	}

	var resp storeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("record store %s: bad response: %w", reqBody.Action, err)
	}
	if !resp.OK {
		return nil, fmt.Errorf("%w: %s: %s", ErrStoreRejected, reqBody.Action, resp.Error)
	}

	return &resp, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
