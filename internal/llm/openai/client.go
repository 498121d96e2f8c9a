package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"huoltokirja/internal/llm"
)

// ExtractFields implements llm.FieldExtractor over the chat/completions API.
// The reply content is treated as untrusted free text: the embedded JSON
// object is located, sanitized, and validated against the fields schema
// before anything is accepted.
func (c *Client) ExtractFields(ctx context.Context, req llm.ExtractRequest) (map[string]any, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"document_id", req.DocumentID,
		"model", c.cfg.Model,
		"text_len", len(req.Text),
		"missing_fields", len(req.MissingFields),
	)

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt()},
			{"role": "user", "content": llm.BuildUserPrompt(req)},
		},
	}

	headers := map[string]string{}
	if c.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.cfg.APIKey
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, fmt.Errorf("%w: decode response: %v", llm.ErrReplyUnparsable, err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices", "req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, raw, fmt.Errorf("%w: no choices in response", llm.ErrReplyUnparsable)
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)

	obj, found := llm.FindJSONObject(content)
	if !found {
		c.logger.Warn("llm.extract.no_json_object",
			"req_id", rid, "content_len", len(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, []byte(content), fmt.Errorf("%w: no JSON object in reply", llm.ErrReplyUnparsable)
	}

	schema := llm.BuildFieldsJSONSchema()
	cleaned := []byte(obj)
	if err := llm.ValidateJSONAgainstSchema(schema, cleaned); err != nil {
		// lenient pass: coerce mistyped values, drop offenders, re-validate
		sanitized, dropped, sErr := llm.SanitizeFields(cleaned)
		if sErr != nil {
			c.logger.Error("llm.extract.sanitize_failed", "req_id", rid, "error", sErr)
			return nil, cleaned, fmt.Errorf("%w: %v", llm.ErrReplyUnparsable, sErr)
		}
		if vErr := llm.ValidateJSONAgainstSchema(schema, sanitized); vErr != nil {
			c.logger.Error("llm.extract.schema_validation_failed",
				"req_id", rid, "error", vErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, cleaned, fmt.Errorf("%w: %v", llm.ErrReplyUnparsable, vErr)
		}
		c.logger.Warn("llm.extract.lenient_sanitize_applied", "req_id", rid, "dropped", dropped)
		cleaned = sanitized
	}

	fields, err := llm.DecodeFields(cleaned)
	if err != nil {
		return nil, cleaned, fmt.Errorf("%w: %v", llm.ErrReplyUnparsable, err)
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"fields", len(fields),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fields, cleaned, nil
}
