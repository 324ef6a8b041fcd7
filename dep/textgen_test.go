package dep

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"crm/config"
)

func TestUnwrapJSONBlock(t *testing.T) {
	assert.Equal(t, `{"a":1}`, UnwrapJSONBlock(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, UnwrapJSONBlock("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, UnwrapJSONBlock("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, UnwrapJSONBlock("  ```json\n{\"a\":1}\n```  "))
}

func newTextGenServer(t *testing.T, replyText string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("content-type", "application/json")
		fmt.Fprintf(w, `{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, replyText)
	}))
}

func TestGenerateJSON(t *testing.T) {
	srv := newTextGenServer(t, "```json\n{\"suggestions\":[{\"subject\":\"Hello\"}]}\n```")
	defer srv.Close()

	svc := NewTextGenService(context.Background(), config.TextGen{
		APIKey:  "test-key",
		Model:   "test-model",
		BaseUrl: srv.URL,
	})

	var out struct {
		Suggestions []struct {
			Subject string `json:"subject"`
		} `json:"suggestions"`
	}
	err := svc.GenerateJSON(context.Background(), "prompt", &out)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(out.Suggestions))
	assert.Equal(t, "Hello", out.Suggestions[0].Subject)
}

func TestGenerateJSONNotConfigured(t *testing.T) {
	svc := NewTextGenService(context.Background(), config.TextGen{})

	var out map[string]interface{}
	err := svc.GenerateJSON(context.Background(), "prompt", &out)
	assert.True(t, errors.Is(err, ErrTextGenNotConfigured))
}

func TestGenerateJSONServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewTextGenService(context.Background(), config.TextGen{
		APIKey:  "test-key",
		Model:   "test-model",
		BaseUrl: srv.URL,
	})

	var out map[string]interface{}
	err := svc.GenerateJSON(context.Background(), "prompt", &out)
	assert.True(t, errors.Is(err, ErrTextGenUnavailable))
}

func TestGenerateJSONBadReply(t *testing.T) {
	tests := []string{
		"not json at all",
		"```json\n{broken\n```",
	}

	for _, reply := range tests {
		srv := newTextGenServer(t, reply)

		svc := NewTextGenService(context.Background(), config.TextGen{
			APIKey:  "test-key",
			Model:   "test-model",
			BaseUrl: srv.URL,
		})

		var out map[string]interface{}
		err := svc.GenerateJSON(context.Background(), "prompt", &out)
		assert.True(t, errors.Is(err, ErrBadTextGenResponse))

		srv.Close()
	}
}

func TestGenerateJSONNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		fmt.Fprint(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	svc := NewTextGenService(context.Background(), config.TextGen{
		APIKey:  "test-key",
		Model:   "test-model",
		BaseUrl: srv.URL,
	})

	var out map[string]interface{}
	err := svc.GenerateJSON(context.Background(), "prompt", &out)
	assert.True(t, errors.Is(err, ErrBadTextGenResponse))
}
