package dep

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"crm/config"
)

var (
	ErrTextGenUnavailable   = errors.New("text generation service unavailable")
	ErrBadTextGenResponse   = errors.New("malformed text generation response")
	ErrTextGenNotConfigured = errors.New("text generation service not configured")
)

// TextGenService wraps a hosted generative model. Callers send a prompt
// that asks for JSON and decode the reply into their own shape.
type TextGenService interface {
	GenerateJSON(ctx context.Context, prompt string, out interface{}) error
	Close(ctx context.Context) error
}

type textGenService struct {
	cfg    config.TextGen
	client *http.Client
}

func NewTextGenService(_ context.Context, cfg config.TextGen) TextGenService {
	return &textGenService{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (s *textGenService) GenerateJSON(ctx context.Context, prompt string, out interface{}) error {
	if s.cfg.APIKey == "" {
		return ErrTextGenNotConfigured
	}

	body, err := json.Marshal(&generateRequest{
		Contents: []content{
			{Parts: []part{{Text: prompt}}},
		},
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.cfg.BaseUrl, s.cfg.Model, s.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Add("content-type", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTextGenUnavailable, err)
	}

	defer func() {
		_ = res.Body.Close()
	}()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTextGenUnavailable, err)
	}

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrTextGenUnavailable, res.StatusCode)
	}

	var gr generateResponse
	if err := json.Unmarshal(b, &gr); err != nil {
		return fmt.Errorf("%w: %v", ErrBadTextGenResponse, err)
	}

	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("%w: no candidates", ErrBadTextGenResponse)
	}

	text := UnwrapJSONBlock(gr.Candidates[0].Content.Parts[0].Text)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadTextGenResponse, err)
	}

	return nil
}

func (s *textGenService) Close(_ context.Context) error {
	return nil
}

// UnwrapJSONBlock strips a markdown code fence around a JSON payload.
// Models often reply with ```json ... ``` even when asked for raw JSON.
func UnwrapJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	return strings.TrimSpace(text)
}
