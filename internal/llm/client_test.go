package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChatClientComplete(t *testing.T) {
	var gotAuth string
	var gotBody chatCompletionRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)

		json.NewEncoder(w).Encode(chatCompletionResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{{Message: chatMessage{Role: "assistant", Content: `{"your_answer": "A"}`}}},
		})
	}))
	defer srv.Close()

	client := NewChatClient(BackendConfig{
		Name:    "test-model",
		BaseURL: srv.URL,
		APIKey:  "secret",
		Model:   "test-model-1",
	})

	content, err := client.Complete(context.Background(), "grade this question")
	if err != nil {
		t.Fatal(err)
	}
	if content != `{"your_answer": "A"}` {
		t.Errorf("content = %q", content)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotBody.Model != "test-model-1" || len(gotBody.Messages) != 1 || gotBody.Messages[0].Content != "grade this question" {
		t.Errorf("request body = %+v", gotBody)
	}
}

func TestChatClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewChatClient(BackendConfig{BaseURL: srv.URL})
	_, err := client.Complete(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "status 429") {
		t.Errorf("err = %v, want status 429 error", err)
	}
}

func TestChatClientNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	client := NewChatClient(BackendConfig{BaseURL: srv.URL})
	_, err := client.Complete(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "no choices") {
		t.Errorf("err = %v, want no-choices error", err)
	}
}

func TestChatClientAPIErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": [], "error": {"message": "model overloaded"}}`))
	}))
	defer srv.Close()

	client := NewChatClient(BackendConfig{BaseURL: srv.URL})
	_, err := client.Complete(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "model overloaded") {
		t.Errorf("err = %v, want API error message", err)
	}
}
