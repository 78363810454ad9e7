package ingest

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"biogasd/internal/model"
	"biogasd/internal/normalize"
)

// Poster forwards each accepted live reading to the backend ingestion
// endpoint. Posts are fire-and-forget: failures are logged at debug level
// and never affect the local buffer or session state.
type Poster struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func NewPoster(url string, timeout time.Duration, logger *slog.Logger) *Poster {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Poster{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (p *Poster) Post(r model.Reading) {
	if p == nil || p.url == "" {
		return
	}
	go p.post(r)
}

func (p *Poster) post(r model.Reading) {
	payload, err := json.Marshal(normalize.Wire(r))
	if err != nil {
		return
	}
	req, err := http.NewRequest(http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		if p.logger != nil {
			p.logger.Debug("backend post failed", "err", err)
		}
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 && p.logger != nil {
		p.logger.Debug("backend post rejected", "status", resp.StatusCode)
	}
}
