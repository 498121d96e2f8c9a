package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huoltokirja/constants"
	"huoltokirja/internal/llm"
)

func chatReply(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(b)
}

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL: srv.URL,
		Model:   "test-model",
		Timeout: 5 * time.Second,
	}, nil)
}

func TestExtractFields(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body["model"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply(`{"amount": 240.0, "date": "2023-05-04"}`)))
	})

	fields, _, err := c.ExtractFields(context.Background(), llm.ExtractRequest{
		DocumentID:    "receipt1.pdf",
		Text:          "MAKSETTAVA YHTEENSÄ 240,00",
		MissingFields: []string{constants.FieldAmount, constants.FieldDate},
	})

	require.NoError(t, err)
	assert.Equal(t, 240.0, fields[constants.FieldAmount])
	assert.Equal(t, "2023-05-04", fields[constants.FieldDate])
}

func TestExtractFieldsProseWrappedReply(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		content := "Here is the extracted data:\n```json\n{\"amount\": 57.66}\n```\nLet me know if you need more."
		_, _ = w.Write([]byte(chatReply(content)))
	})

	fields, _, err := c.ExtractFields(context.Background(), llm.ExtractRequest{Text: "x"})

	require.NoError(t, err)
	assert.Equal(t, 57.66, fields[constants.FieldAmount])
}

func TestExtractFieldsSanitizesMistypedReply(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatReply(`{"amount": "240,00", "odometer_km": 387551.0, "vat_amount": null}`)))
	})

	fields, _, err := c.ExtractFields(context.Background(), llm.ExtractRequest{Text: "x"})

	require.NoError(t, err)
	assert.Equal(t, 240.0, fields[constants.FieldAmount])
	assert.Equal(t, 387551, fields[constants.FieldOdometerKM])
	assert.NotContains(t, fields, constants.FieldVATAmount)
}

func TestExtractFieldsServiceUnavailable(t *testing.T) {
	t.Parallel()

	// a server that is already closed refuses connections
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()
	c := NewClient(Config{BaseURL: srv.URL, Model: "m", Timeout: time.Second}, nil)

	_, _, err := c.ExtractFields(context.Background(), llm.ExtractRequest{Text: "x"})

	assert.ErrorIs(t, err, llm.ErrServiceUnavailable)
}

func TestExtractFieldsServerError(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, _, err := c.ExtractFields(context.Background(), llm.ExtractRequest{Text: "x"})

	assert.ErrorIs(t, err, llm.ErrServiceUnavailable)
}

func TestExtractFieldsGarbageReply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"no json at all", "I could not find any fields in this receipt."},
		{"unbalanced braces", `{"amount": 240.0`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(chatReply(tt.content)))
			})

			_, _, err := c.ExtractFields(context.Background(), llm.ExtractRequest{Text: "x"})
			assert.ErrorIs(t, err, llm.ErrReplyUnparsable)
		})
	}
}

func TestExtractFieldsEmptyChoices(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	})

	_, _, err := c.ExtractFields(context.Background(), llm.ExtractRequest{Text: "x"})

	assert.ErrorIs(t, err, llm.ErrReplyUnparsable)
}

func TestExtractFieldsSendsAuthorizationHeader(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(chatReply(`{"amount": 1.0}`)))
	})
	c.cfg.APIKey = "secret"

	_, _, err := c.ExtractFields(context.Background(), llm.ExtractRequest{Text: "x"})
	require.NoError(t, err)
}
