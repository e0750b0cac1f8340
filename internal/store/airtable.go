package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/xaenox/support-bot/internal/models"
	"go.uber.org/zap"
)

const defaultAirtableBaseURL = "https://api.airtable.com/v0"

// AirtableStore talks to the Airtable REST API. One remote table holds
// both record shapes; the filter formulas and the decoders below keep
// them apart.
type AirtableStore struct {
	client  *http.Client
	baseURL string
	token   string
	baseID  string
	table   string
	logger  *zap.Logger
}

func NewAirtableStore(token, baseID, table string, logger *zap.Logger) *AirtableStore {
	return &AirtableStore{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: defaultAirtableBaseURL,
		token:   token,
		baseID:  baseID,
		table:   table,
		logger:  logger,
	}
}

type airtableRecord struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

type airtableRecordList struct {
	Records []airtableRecord `json:"records"`
	Offset  string           `json:"offset,omitempty"`
}

func (s *AirtableStore) ListOpenAppeals(ctx context.Context, userID int64) ([]models.Appeal, error) {
	params := url.Values{}
	params.Set("filterByFormula", fmt.Sprintf("AND({user_id} = '%d', {appeal_status} = '%s')", userID, models.AppealOpen))

	records, err := s.listRecords(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list open appeals: %w", err)
	}

	var appeals []models.Appeal
	for _, record := range records {
		if appeal, ok := appealFromFields(record.Fields); ok {
			appeals = append(appeals, appeal)
		}
	}
	return appeals, nil
}

func (s *AirtableStore) CreateAppeal(ctx context.Context, appeal models.Appeal) error {
	fields := map[string]any{
		"user_id":       appeal.UserID,
		"appeal_id":     appeal.ID,
		"appeal_title":  appeal.Title,
		"appeal_status": string(appeal.Status),
		"timestamp":     appeal.CreatedAt.Format(time.RFC3339Nano),
	}
	if err := s.createRecord(ctx, fields); err != nil {
		return fmt.Errorf("failed to create appeal: %w", err)
	}
	return nil
}

func (s *AirtableStore) CloseAppeal(ctx context.Context, appealID string) error {
	// Turn records carry the same appeal_id; only the appeal record
	// has a status, so the formula selects exactly one shape.
	params := url.Values{}
	params.Set("filterByFormula", fmt.Sprintf("AND({appeal_id} = '%s', {appeal_status} != '')", appealID))
	params.Set("maxRecords", "1")

	records, err := s.listRecords(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to look up appeal: %w", err)
	}
	if len(records) == 0 {
		return ErrAppealNotFound
	}

	fields := map[string]any{"appeal_status": string(models.AppealClosed)}
	if err := s.updateRecord(ctx, records[0].ID, fields); err != nil {
		return fmt.Errorf("failed to close appeal: %w", err)
	}
	return nil
}

func (s *AirtableStore) ListTurns(ctx context.Context, userID int64, appealID string) ([]models.Turn, error) {
	params := url.Values{}
	params.Set("filterByFormula", fmt.Sprintf("AND({user_id} = '%d', {appeal_id} = '%s')", userID, appealID))
	params.Set("sort[0][field]", "timestamp")
	params.Set("sort[0][direction]", "asc")

	records, err := s.listRecords(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}

	var turns []models.Turn
	for _, record := range records {
		if turn, ok := turnFromFields(record.Fields); ok {
			turns = append(turns, turn)
		}
	}
	return turns, nil
}

func (s *AirtableStore) SaveTurn(ctx context.Context, turn models.Turn) error {
	fields := map[string]any{
		"message_id": turn.MessageID,
		"user_id":    turn.UserID,
		"appeal_id":  turn.AppealID,
		"role":       string(turn.Role),
		"content":    turn.Content,
		// Sub-second precision keeps a user turn and a fast bot turn
		// of one exchange in order under the timestamp sort.
		"timestamp": turn.Timestamp.Format(time.RFC3339Nano),
	}
	if turn.Tokens != nil {
		fields["tokens"] = *turn.Tokens
	}
	if err := s.createRecord(ctx, fields); err != nil {
		return fmt.Errorf("failed to save turn: %w", err)
	}
	return nil
}

func (s *AirtableStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// appealFromFields decodes an appeal-shaped record; turn-shaped records
// in the same table are rejected by the shape check on appeal_status.
func appealFromFields(fields map[string]any) (models.Appeal, bool) {
	status, ok := fields["appeal_status"].(string)
	if !ok || status == "" {
		return models.Appeal{}, false
	}

	appeal := models.Appeal{
		Status: models.AppealStatus(status),
	}
	appeal.ID, _ = fields["appeal_id"].(string)
	appeal.Title, _ = fields["appeal_title"].(string)
	appeal.UserID = int64Field(fields, "user_id")
	appeal.CreatedAt = timeField(fields, "timestamp")
	return appeal, appeal.ID != ""
}

func turnFromFields(fields map[string]any) (models.Turn, bool) {
	role, ok := fields["role"].(string)
	if !ok || role == "" {
		return models.Turn{}, false
	}

	turn := models.Turn{
		Role: models.Role(role),
	}
	turn.AppealID, _ = fields["appeal_id"].(string)
	turn.Content, _ = fields["content"].(string)
	turn.UserID = int64Field(fields, "user_id")
	turn.MessageID = int(int64Field(fields, "message_id"))
	turn.Timestamp = timeField(fields, "timestamp")
	if tokens, ok := fields["tokens"].(float64); ok {
		t := int(tokens)
		turn.Tokens = &t
	}
	return turn, true
}

func int64Field(fields map[string]any, key string) int64 {
	switch v := fields[key].(type) {
	case float64:
		return int64(v)
	case string:
		var n int64
		fmt.Sscanf(v, "%d", &n)
		return n
	}
	return 0
}

func timeField(fields map[string]any, key string) time.Time {
	if v, ok := fields[key].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (s *AirtableStore) listRecords(ctx context.Context, params url.Values) ([]airtableRecord, error) {
	var records []airtableRecord
	offset := ""
	for {
		page := params
		if offset != "" {
			page = url.Values{}
			for k, v := range params {
				page[k] = v
			}
			page.Set("offset", offset)
		}

		var list airtableRecordList
		if err := s.do(ctx, http.MethodGet, s.tableURL()+"?"+page.Encode(), nil, &list); err != nil {
			return nil, err
		}
		records = append(records, list.Records...)

		if list.Offset == "" {
			s.logger.Debug("Fetched records",
				zap.Int("count", len(records)),
				zap.String("table", s.table))
			return records, nil
		}
		offset = list.Offset
	}
}

func (s *AirtableStore) createRecord(ctx context.Context, fields map[string]any) error {
	body := map[string]any{"fields": fields}
	return s.do(ctx, http.MethodPost, s.tableURL(), body, nil)
}

func (s *AirtableStore) updateRecord(ctx context.Context, recordID string, fields map[string]any) error {
	body := map[string]any{"fields": fields}
	return s.do(ctx, http.MethodPatch, s.tableURL()+"/"+recordID, body, nil)
}

func (s *AirtableStore) tableURL() string {
	return fmt.Sprintf("%s/%s/%s", s.baseURL, s.baseID, url.PathEscape(s.table))
}

func (s *AirtableStore) do(ctx context.Context, method, rawURL string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("airtable returned %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
