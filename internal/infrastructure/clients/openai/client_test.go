package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/nearbydining/internal/domain/providers"
	"github.com/zatekoja/nearbydining/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&config.OpenAIConfig{
		APIKey:       "sk-test",
		Model:        "gpt-4o",
		BaseURL:      server.URL,
		RateLimitRPM: -1,
	})
	require.NoError(t, err)
	return client
}

func outputEnvelope(text string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"status": "completed",
		"output": []interface{}{
			map[string]interface{}{
				"content": []interface{}{
					map[string]string{"type": "output_text", "text": text},
				},
			},
		},
	})
	return string(body)
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(&config.OpenAIConfig{})
	assert.Error(t, err)

	_, err = NewClient(nil)
	assert.Error(t, err)
}

func TestScoreRestaurants_SendsStructuredRequest(t *testing.T) {
	var captured map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))

		_, _ = w.Write([]byte(outputEnvelope(`{"scores":[{"id":"p1","name":"Sushi Kaito","score":9,"reason":"fresh fish","bestDish":"omakase"}]}`)))
	})

	records, err := client.ScoreRestaurants(context.Background(), "Restaurants:\n")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.JSONEq(t, `{"id":"p1","name":"Sushi Kaito","score":9,"reason":"fresh fish","bestDish":"omakase"}`, string(records[0]))

	assert.Equal(t, "gpt-4o", captured["model"])
	input := captured["input"].([]interface{})
	require.Len(t, input, 1)
	assert.Equal(t, "user", input[0].(map[string]interface{})["role"])
	assert.Equal(t, "Restaurants:\n", input[0].(map[string]interface{})["content"])

	format := captured["text"].(map[string]interface{})["format"].(map[string]interface{})
	assert.Equal(t, "json_schema", format["type"])
	assert.Equal(t, restaurantScoresSchemaName, format["name"])
	assert.Equal(t, true, format["strict"])
}

func TestScoreRestaurants_StripsCodeFences(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(outputEnvelope("```json\n{\"scores\":[]}\n```")))
	})

	records, err := client.ScoreRestaurants(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestScoreRestaurants_MalformedOutput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: outputEnvelope("I cannot rank these")},
		{name: "missing scores", body: outputEnvelope(`{"results":[]}`)},
		{name: "scores not array", body: outputEnvelope(`{"scores":{"id":"p1"}}`)},
		{name: "no output text", body: `{"status":"completed","output":[]}`},
		{name: "refusal", body: `{"status":"completed","output":[{"content":[{"type":"refusal","refusal":"no"}]}]}`},
		{name: "incomplete", body: `{"status":"incomplete","output":[]}`},
		{name: "broken envelope", body: `{"status":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.ScoreRestaurants(context.Background(), "prompt")
			require.Error(t, err)
			assert.ErrorIs(t, err, providers.ErrMalformedScoringResponse)
		})
	}
}

func TestScoreRestaurants_HTTPErrors(t *testing.T) {
	unauthorized := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := unauthorized.ScoreRestaurants(context.Background(), "prompt")
	assert.ErrorIs(t, err, providers.ErrScoringUnauthorized)

	unavailable := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err = unavailable.ScoreRestaurants(context.Background(), "prompt")
	require.Error(t, err)
	assert.NotErrorIs(t, err, providers.ErrScoringUnauthorized)
	assert.NotErrorIs(t, err, providers.ErrMalformedScoringResponse)
}

func TestScoreRestaurants_ContextDeadline(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.ScoreRestaurants(ctx, "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestParseScoresPayload_KeepsNullRecords(t *testing.T) {
	records, err := parseScoresPayload([]byte(`{"scores":[null,{"id":"a"}]}`))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "null", string(records[0]))
	assert.JSONEq(t, `{"id":"a"}`, string(records[1]))
}

func TestTokenBucket_WaitHonoursContext(t *testing.T) {
	bucket := newTokenBucket(1, 1)
	require.NotNil(t, bucket)
	require.NoError(t, bucket.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, bucket.Wait(ctx), context.Canceled)

	assert.Nil(t, newTokenBucket(-1, 0))
}
