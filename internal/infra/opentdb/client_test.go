package opentdb

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestFetchBuildsProviderQuery(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"amount":     r.URL.Query().Get("amount"),
			"difficulty": r.URL.Query().Get("difficulty"),
			"category":   r.URL.Query().Get("category"),
		}
		fmt.Fprint(w, `{"response_code":0,"results":[
			{"question":"Q1","correct_answer":"A","incorrect_answers":["B","C","D"]},
			{"question":"Q2","correct_answer":"A","incorrect_answers":["B","C","D"]}
		]}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	questions, err := client.Fetch(context.Background(), 2, "medium", "21")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if questions[0].CorrectAnswer != "A" || len(questions[0].IncorrectAnswers) != 3 {
		t.Fatalf("unexpected question decode: %+v", questions[0])
	}
	if gotQuery["amount"] != "2" || gotQuery["difficulty"] != "medium" || gotQuery["category"] != "21" {
		t.Fatalf("unexpected query: %v", gotQuery)
	}
}

func TestFetchOmitsCategoryForWildcard(t *testing.T) {
	var hadCategory bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hadCategory = r.URL.Query().Has("category")
		fmt.Fprint(w, `{"response_code":0,"results":[]}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	if _, err := client.Fetch(context.Background(), 1, "easy", ""); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if hadCategory {
		t.Fatalf("wildcard fetch must not send a category filter")
	}
}

func TestFetchShortPoolIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response_code":1,"results":[]}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	questions, err := client.Fetch(context.Background(), 50, "hard", "")
	if err != nil {
		t.Fatalf("short pool must be a valid empty batch: %v", err)
	}
	if len(questions) != 0 {
		t.Fatalf("expected empty batch, got %d", len(questions))
	}
}

func TestFetchSurfacesServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	if _, err := client.Fetch(context.Background(), 1, "easy", ""); err == nil {
		t.Fatalf("expected error on 500 response")
	}
}

func TestSessionTokenRequestedOnceAndSent(t *testing.T) {
	var tokenRequests atomic.Int32
	var lastToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api_token.php":
			tokenRequests.Add(1)
			fmt.Fprint(w, `{"response_code":0,"token":"tok-1"}`)
		case "/api.php":
			lastToken = r.URL.Query().Get("token")
			fmt.Fprint(w, `{"response_code":0,"results":[]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, UseToken: true})
	for i := 0; i < 3; i++ {
		if _, err := client.Fetch(context.Background(), 1, "easy", ""); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	if got := tokenRequests.Load(); got != 1 {
		t.Fatalf("expected one token request, got %d", got)
	}
	if lastToken != "tok-1" {
		t.Fatalf("expected token sent with fetch, got %q", lastToken)
	}
}

func TestExhaustedTokenIsDropped(t *testing.T) {
	var tokenRequests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api_token.php":
			n := tokenRequests.Add(1)
			fmt.Fprintf(w, `{"response_code":0,"token":"tok-%d"}`, n)
		case "/api.php":
			if r.URL.Query().Get("token") == "tok-1" {
				fmt.Fprint(w, `{"response_code":4,"results":[]}`)
				return
			}
			fmt.Fprint(w, `{"response_code":0,"results":[]}`)
		}
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, UseToken: true})

	// First fetch: token tok-1 is reported exhausted, retryable error.
	if _, err := client.Fetch(context.Background(), 1, "easy", ""); err == nil {
		t.Fatalf("expected retryable error on exhausted token")
	}
	// Second fetch requests a fresh token and succeeds.
	if _, err := client.Fetch(context.Background(), 1, "easy", ""); err != nil {
		t.Fatalf("expected success with fresh token: %v", err)
	}
	if got := tokenRequests.Load(); got != 2 {
		t.Fatalf("expected 2 token requests, got %d", got)
	}
}
