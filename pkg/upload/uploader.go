// Package upload stores NFT assets on Arweave through a payment verifying
// upload function, and quotes the SOL cost of storing them.
package upload

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lotterynft/lottery-client/pkg/metrics"
	"github.com/lotterynft/lottery-client/pkg/retry"
	"github.com/lotterynft/lottery-client/pkg/retry/backoff"
)

const (
	metricsStructName = "upload.uploader"

	requestIdHeader = "X-Request-Id"
)

// ErrNoManifest is returned when the upload result carries no transaction for
// the manifest file.
var ErrNoManifest = errors.New("manifest was not stored")

type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Message is the per file outcome reported by the upload function.
type Message struct {
	Filename      string `json:"filename"`
	Status        string `json:"status"`
	TransactionId string `json:"transactionId,omitempty"`
	Error         string `json:"error,omitempty"`
}

type Result struct {
	Error    string    `json:"error,omitempty"`
	Messages []Message `json:"messages,omitempty"`
}

// Manifest returns the message for the manifest file, if it was stored.
func (r *Result) Manifest() (Message, bool) {
	for _, m := range r.Messages {
		if m.Filename == ManifestFileName && m.TransactionId != "" {
			return m, true
		}
	}
	return Message{}, false
}

// Failed returns the files the function did not store.
func (r *Result) Failed() []Message {
	var failed []Message
	for _, m := range r.Messages {
		if m.Status != "success" {
			failed = append(failed, m)
		}
	}
	return failed
}

type Uploader struct {
	log        *logrus.Entry
	conf       *conf
	httpClient *http.Client
	retrier    retry.Retrier
}

func NewUploader(configProvider ConfigProvider) *Uploader {
	return &Uploader{
		log:  logrus.StandardLogger().WithField("type", "upload/uploader"),
		conf: configProvider(),
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		retrier: retry.NewRetrier(
			retry.NonRetriableErrors(context.Canceled),
			retry.Limit(3),
			retry.BackoffWithJitter(backoff.BinaryExponential(time.Second), 10*time.Second, 0.1),
		),
	}
}

// URI returns the gateway address of a stored transaction.
func (u *Uploader) URI(ctx context.Context, transactionId string) string {
	gateway := u.conf.gateway.Get(ctx)
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	return gateway + transactionId
}

// Upload sends files to the upload function along with the signature of the
// transaction that paid for them. Every file is tagged with mint.
func (u *Uploader) Upload(ctx context.Context, payment string, mint ed25519.PublicKey, files []File) (*Result, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Upload")
	defer tracer.End()

	requestId := uuid.New().String()
	log := u.log.WithFields(logrus.Fields{
		"method":     "Upload",
		"request_id": requestId,
		"payment":    payment,
		"files":      len(files),
	})

	body, contentType, err := encodeForm(payment, mint, files)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}

	var result Result
	_, err = u.retrier.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.conf.endpoint.Get(ctx), bytes.NewReader(body))
		if err != nil {
			return errors.Wrap(err, "failed to create request")
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set(requestIdHeader, requestId)

		resp, err := u.httpClient.Do(req)
		if err != nil {
			return errors.Wrap(err, "failed to make request")
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return errors.Errorf("received non-200 status code: %d", resp.StatusCode)
		}
		return errors.Wrap(json.NewDecoder(resp.Body).Decode(&result), "failed to decode response")
	})
	if err != nil {
		log.WithError(err).Warn("upload failed")
		tracer.OnError(err)
		return nil, err
	}

	if result.Error != "" {
		err = errors.Errorf("upload rejected: %s", result.Error)
		tracer.OnError(err)
		return &result, err
	}

	for _, failed := range result.Failed() {
		log.WithFields(logrus.Fields{
			"filename": failed.Filename,
			"error":    failed.Error,
		}).Warn("file was not stored")
	}
	return &result, nil
}

func encodeForm(payment string, mint ed25519.PublicKey, files []File) ([]byte, string, error) {
	tags := make(map[string][]Tag, len(files))
	for _, f := range files {
		tags[f.Name] = []Tag{{Name: "mint", Value: base58.Encode(mint)}}
	}
	encodedTags, err := json.Marshal(tags)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to encode tags")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("tags", string(encodedTags)); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("transaction", payment); err != nil {
		return nil, "", err
	}
	for _, f := range files {
		part, err := w.CreateFormFile("file[]", f.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
