// Package moderation fans submitted content out to the text and image classifiers and
// gates persistence on their combined verdict.
package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"Yam_Community/internal/metrics"
	"Yam_Community/internal/model"
	"Yam_Community/internal/pkg"
)

const (
	outcomeApproved  = "approved"
	outcomeRejected  = "rejected"
	outcomeTransport = "transport"
)

// Content is what gets moderated. Either part may be absent.
type Content struct {
	Text  string
	Image *model.File
}

type textRequest struct {
	Text string `json:"text"`
}

type textVerdict struct {
	Text    string `json:"text"`
	IsToxic bool   `json:"is_toxic"`
	Message string `json:"message"`
}

type imageVerdict struct {
	Prediction struct {
		ClassName  string  `json:"class_name"`
		Confidence float64 `json:"confidence"`
		IsHarmful  bool    `json:"is_harmful"`
	} `json:"prediction"`
	Message string `json:"message"`
}

type Config struct {
	TextURL  string
	ImageURL string
	Timeout  time.Duration
}

type Gateway struct {
	http     *http.Client
	textURL  string
	imageURL string
	timeout  time.Duration
	metrics  *metrics.Metrics
}

func NewGateway(cfg Config, client *http.Client, m *metrics.Metrics) *Gateway {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Gateway{
		http:     client,
		textURL:  strings.TrimRight(cfg.TextURL, "/") + "/checktext",
		imageURL: strings.TrimRight(cfg.ImageURL, "/") + "/checkimage",
		timeout:  cfg.Timeout,
		metrics:  m,
	}
}

// Validate runs every present check concurrently and waits for all of them.
// It returns nil on unanimous approval. Leg errors are joined with rejections first.
func (g *Gateway) Validate(ctx context.Context, c Content) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	run := func(check func(context.Context) error) {
		defer wg.Done()
		legCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		if err := check(legCtx); err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	}
	if strings.TrimSpace(c.Text) != "" {
		wg.Add(1)
		go run(func(ctx context.Context) error { return g.checkText(ctx, c.Text) })
	}
	if !c.Image.Empty() {
		wg.Add(1)
		go run(func(ctx context.Context) error { return g.checkImage(ctx, c.Image) })
	}
	wg.Wait()

	ordered := make([]error, 0, len(errs))
	for _, err := range errs {
		if errors.Is(err, pkg.ErrContentRejected) {
			ordered = append(ordered, err)
		}
	}
	for _, err := range errs {
		if !errors.Is(err, pkg.ErrContentRejected) {
			ordered = append(ordered, err)
		}
	}
	return errors.Join(ordered...)
}

func (g *Gateway) checkText(ctx context.Context, text string) (err error) {
	start := time.Now()
	defer func() { g.metrics.ObserveModeration(pkg.ModalityText, outcome(err), time.Since(start)) }()

	body, err := json.Marshal(textRequest{Text: text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.textURL, bytes.NewReader(body))
	if err != nil {
		return &pkg.TransportError{Modality: pkg.ModalityText, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	var v textVerdict
	if err = g.do(req, pkg.ModalityText, &v); err != nil {
		return err
	}
	if v.IsToxic {
		reason := v.Message
		if reason == "" {
			reason = "toxic text"
		}
		return &pkg.RejectedError{Modality: pkg.ModalityText, Reason: reason}
	}
	return nil
}

func (g *Gateway) checkImage(ctx context.Context, img *model.File) (err error) {
	start := time.Now()
	defer func() { g.metrics.ObserveModeration(pkg.ModalityImage, outcome(err), time.Since(start)) }()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	name := img.Name
	if name == "" {
		name = "upload"
	}
	part, err := w.CreateFormFile("image", name)
	if err != nil {
		return err
	}
	if _, err = part.Write(img.Data); err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.imageURL, &buf)
	if err != nil {
		return &pkg.TransportError{Modality: pkg.ModalityImage, Err: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var v imageVerdict
	if err = g.do(req, pkg.ModalityImage, &v); err != nil {
		return err
	}
	if v.Prediction.IsHarmful {
		reason := v.Prediction.ClassName
		if reason == "" {
			reason = "harmful image"
		}
		return &pkg.RejectedError{Modality: pkg.ModalityImage, Reason: reason}
	}
	return nil
}

func (g *Gateway) do(req *http.Request, modality string, out any) error {
	resp, err := g.http.Do(req)
	if err != nil {
		return &pkg.TransportError{Modality: modality, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &pkg.TransportError{Modality: modality, StatusCode: resp.StatusCode}
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &pkg.TransportError{Modality: modality, Err: fmt.Errorf("decode verdict: %w", err)}
	}
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeApproved
	case errors.Is(err, pkg.ErrContentRejected):
		return outcomeRejected
	}
	return outcomeTransport
}
