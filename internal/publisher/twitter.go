// Package publisher posts the rendered artifact to Twitter/X: a
// media upload against the v1.1 endpoint followed by a v2 tweet
// referencing the returned media id.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultUploadURL = "https://upload.twitter.com/1.1/media/upload.json"
	defaultTweetURL  = "https://api.twitter.com/2/tweets"
)

// Credentials holds the OAuth1 user-context keys for the posting
// account.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
}

func (c Credentials) Complete() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != "" &&
		c.AccessToken != "" && c.AccessSecret != ""
}

// TwitterPublisher performs the two-phase publish. The signed client
// is created once and reused across cycles; it is stateless between
// uses.
type TwitterPublisher struct {
	client    *http.Client
	uploadURL string
	tweetURL  string
	tracer    trace.Tracer
}

func NewTwitterPublisher(tracer trace.Tracer, creds Credentials) *TwitterPublisher {
	cfg := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	client := cfg.Client(oauth1.NoContext, token)
	client.Timeout = 60 * time.Second
	return &TwitterPublisher{
		client:    client,
		uploadURL: defaultUploadURL,
		tweetURL:  defaultTweetURL,
		tracer:    tracer,
	}
}

// Publish uploads the GIF, then posts the text referencing it. The
// tweet phase is never attempted when the upload phase fails. Returns
// the created tweet id.
func (p *TwitterPublisher) Publish(ctx context.Context, gifData []byte, text string) (string, error) {
	ctx, span := p.tracer.Start(ctx, "publisher.publish")
	defer span.End()

	mediaID, err := p.uploadMedia(ctx, gifData)
	if err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}
	tweetID, err := p.postTweet(ctx, text, mediaID)
	if err != nil {
		return "", fmt.Errorf("post tweet: %w", err)
	}
	return tweetID, nil
}

func (p *TwitterPublisher) uploadMedia(ctx context.Context, gifData []byte) (string, error) {
	_, span := p.tracer.Start(ctx, "publisher.upload-media")
	defer span.End()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("media", "bitcoin_roller_coaster.gif")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(gifData); err != nil {
		return "", err
	}
	if err := mw.WriteField("media_category", "tweet_gif"); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.uploadURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("media upload error %d: %s", resp.StatusCode, string(payload))
	}

	var uploaded struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if uploaded.MediaIDString == "" {
		return "", fmt.Errorf("upload response has no media id")
	}
	return uploaded.MediaIDString, nil
}

func (p *TwitterPublisher) postTweet(ctx context.Context, text, mediaID string) (string, error) {
	_, span := p.tracer.Start(ctx, "publisher.post-tweet")
	defer span.End()

	payload, err := json.Marshal(map[string]any{
		"text":  text,
		"media": map[string]any{"media_ids": []string{mediaID}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tweetURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("tweet post error %d: %s", resp.StatusCode, string(body))
	}

	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode tweet response: %w", err)
	}
	if created.Data.ID == "" {
		return "", fmt.Errorf("tweet response has no id")
	}
	return created.Data.ID, nil
}
