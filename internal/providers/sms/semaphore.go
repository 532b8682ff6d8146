package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/perly101/purrfectpaw/internal/config"
)

// SemaphoreProvider sends SMS through the Semaphore gateway
// (api.semaphore.co), the common choice for Philippine numbers.
type SemaphoreProvider struct {
	baseURL    string
	apiKey     string
	senderName string
	client     *http.Client
}

func NewSemaphore(cfg config.SMSConfig) *SemaphoreProvider {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SemaphoreProvider{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		senderName: cfg.SenderName,
		client:     &http.Client{Timeout: timeout},
	}
}

func (p *SemaphoreProvider) Send(ctx context.Context, to string, message string) error {
	form := url.Values{}
	form.Set("apikey", p.apiKey)
	form.Set("number", to)
	form.Set("message", message)
	if p.senderName != "" {
		form.Set("sendername", p.senderName)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
