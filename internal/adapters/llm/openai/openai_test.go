package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/cmdbot/internal/adapters/llm"
)

func TestChatCompletionSendsSystemPromptFirst(t *testing.T) {
	t.Parallel()

	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"山高月小"}}]}`))
	}))
	defer srv.Close()

	api := New("key", "", srv.URL+"/v1", log.NewEntry(log.New()))
	api.WithSystemPrompt("quote")
	resp, err := api.ChatCompletion(context.Background(), []llm.ChatCompletionMessage{
		{Role: llm.RoleUser, Content: "zh_CN"},
	})
	if err != nil {
		t.Fatalf("chat completion: %v", err)
	}
	content, err := resp.Content()
	if err != nil || content != "山高月小" {
		t.Fatalf("unexpected content: %q %v", content, err)
	}
	if got.Model != DefaultModel {
		t.Fatalf("unexpected model: %s", got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[0].Content != "quote" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestEmptyResponse(t *testing.T) {
	t.Parallel()

	if _, err := (llm.ChatCompletionResponse{}).Content(); err != llm.ErrEmptyResponse {
		t.Fatalf("unexpected error: %v", err)
	}
}
