package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func newTestPublisher(rt roundTripFunc) *TwitterPublisher {
	p := NewTwitterPublisher(trace.NewNoopTracerProvider().Tracer("test"), Credentials{
		ConsumerKey: "ck", ConsumerSecret: "cs", AccessToken: "at", AccessSecret: "as",
	})
	p.client = &http.Client{Transport: rt}
	p.uploadURL = "http://example/upload"
	p.tweetURL = "http://example/tweets"
	return p
}

func TestCredentialsComplete(t *testing.T) {
	full := Credentials{ConsumerKey: "a", ConsumerSecret: "b", AccessToken: "c", AccessSecret: "d"}
	if !full.Complete() {
		t.Fatal("expected complete credentials")
	}
	partial := full
	partial.AccessSecret = ""
	if partial.Complete() {
		t.Fatal("expected incomplete credentials")
	}
}

func TestPublishTwoPhases(t *testing.T) {
	t.Parallel()

	var uploads, posts int
	p := newTestPublisher(func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/upload":
			uploads++
			if !strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/form-data") {
				t.Fatalf("expected multipart upload, got %s", req.Header.Get("Content-Type"))
			}
			body, _ := io.ReadAll(req.Body)
			if !bytes.Contains(body, []byte("tweet_gif")) {
				t.Fatal("expected tweet_gif media category")
			}
			return response(http.StatusOK, `{"media_id_string":"12345"}`), nil
		case "/tweets":
			posts++
			var payload struct {
				Text  string `json:"text"`
				Media struct {
					MediaIDs []string `json:"media_ids"`
				} `json:"media"`
			}
			if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
				t.Fatalf("decode tweet payload: %v", err)
			}
			if payload.Text != "hello" || len(payload.Media.MediaIDs) != 1 || payload.Media.MediaIDs[0] != "12345" {
				t.Fatalf("unexpected tweet payload: %+v", payload)
			}
			return response(http.StatusCreated, `{"data":{"id":"987"}}`), nil
		default:
			t.Fatalf("unexpected path: %s", req.URL.Path)
			return nil, nil
		}
	})

	tweetID, err := p.Publish(context.Background(), []byte("GIF89a"), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tweetID != "987" {
		t.Fatalf("expected tweet id 987, got %s", tweetID)
	}
	if uploads != 1 || posts != 1 {
		t.Fatalf("expected one upload and one post, got %d/%d", uploads, posts)
	}
}

func TestPublishSkipsTweetWhenUploadFails(t *testing.T) {
	t.Parallel()

	var posts int
	p := newTestPublisher(func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/upload":
			return response(http.StatusBadRequest, `{"errors":[{"message":"bad media"}]}`), nil
		case "/tweets":
			posts++
			return response(http.StatusCreated, `{"data":{"id":"987"}}`), nil
		default:
			return nil, nil
		}
	})

	if _, err := p.Publish(context.Background(), []byte("GIF89a"), "hello"); err == nil {
		t.Fatal("expected upload error")
	}
	if posts != 0 {
		t.Fatalf("tweet phase must not run after upload failure, got %d posts", posts)
	}
}

func TestPublishPostFailure(t *testing.T) {
	t.Parallel()

	p := newTestPublisher(func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/upload":
			return response(http.StatusOK, `{"media_id_string":"12345"}`), nil
		default:
			return response(http.StatusForbidden, `{"detail":"duplicate"}`), nil
		}
	})

	if _, err := p.Publish(context.Background(), []byte("GIF89a"), "hello"); err == nil {
		t.Fatal("expected post error")
	}
}

func TestPublishRejectsEmptyMediaID(t *testing.T) {
	t.Parallel()

	p := newTestPublisher(func(req *http.Request) (*http.Response, error) {
		return response(http.StatusOK, `{}`), nil
	})

	if _, err := p.Publish(context.Background(), []byte("GIF89a"), "hello"); err == nil {
		t.Fatal("expected error for missing media id")
	}
}
