// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package fetch downloads archives over HTTP(S) before they are extracted
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/afero"

	iu "github.com/choria-io/extractvpk/internal/util"
	"github.com/choria-io/extractvpk/metrics"
	"github.com/choria-io/extractvpk/model"
)

// Request describes a single download
type Request struct {
	Url         string
	Destination string
	Checksum    string
	Username    string
	Password    string
	Headers     map[string]string
}

// Downloader saves remote archives onto a filesystem
type Downloader struct {
	fs     afero.Fs
	client *resty.Client
	log    model.Logger
}

// Option configures a Downloader
type Option func(*Downloader)

// WithTimeout sets the timeout of each request
func WithTimeout(timeout time.Duration) Option {
	return func(d *Downloader) { d.client.SetTimeout(timeout) }
}

// WithRetries sets how often failed requests are retried
func WithRetries(count int) Option {
	return func(d *Downloader) { d.client.SetRetryCount(count) }
}

// New creates a downloader writing to fs
func New(fs afero.Fs, log model.Logger, opts ...Option) *Downloader {
	d := &Downloader{
		fs:     fs,
		log:    log,
		client: resty.New(),
	}

	d.client.SetTimeout(10 * time.Minute)
	d.client.SetRetryCount(2)

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Download fetches req.Url into req.Destination, it is skipped when the destination already has the expected checksum.
//
// Data is written to a temporary file next to the destination and renamed into place once complete and verified.
func (d *Downloader) Download(ctx context.Context, req Request) (bool, error) {
	uri, err := url.Parse(req.Url)
	if err != nil {
		return false, fmt.Errorf("%w: %w", model.ErrDownloadFailed, err)
	}

	if req.Checksum != "" && iu.IsRegularFile(d.fs, req.Destination) {
		if iu.Sha256VerifyFile(d.fs, req.Destination, req.Checksum) == nil {
			d.log.Info("Archive is up to date", "dest", req.Destination)
			return false, nil
		}
	}

	label := filepath.Base(req.Destination)
	start := time.Now()

	err = d.download(ctx, uri, req)
	if err != nil {
		metrics.DownloadFailureCount.WithLabelValues(label).Inc()
		return false, err
	}

	metrics.DownloadTime.WithLabelValues(label).Observe(time.Since(start).Seconds())

	return true, nil
}

func (d *Downloader) download(ctx context.Context, uri *url.URL, req Request) error {
	d.log.Info("Downloading", "url", uri.Redacted())

	r := d.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)

	if len(req.Headers) > 0 {
		r.SetHeaders(req.Headers)
	}

	if req.Username != "" && req.Password != "" {
		r.SetBasicAuth(req.Username, req.Password)
	}

	resp, err := r.Get(uri.String())
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrDownloadFailed, err)
	}

	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: HTTP request failed with status %d: %s", model.ErrDownloadFailed, resp.StatusCode(), resp.Status())
	}

	parent := filepath.Dir(req.Destination)
	err = d.fs.MkdirAll(parent, 0755)
	if err != nil {
		return err
	}

	tf, err := afero.TempFile(d.fs, parent, fmt.Sprintf("%s-*", filepath.Base(req.Destination)))
	if err != nil {
		return err
	}
	defer d.fs.Remove(tf.Name())

	copied, err := io.Copy(tf, body)
	if err != nil {
		tf.Close()
		return fmt.Errorf("%w: could not copy file: %w", model.ErrDownloadFailed, err)
	}
	d.log.Info("Archive downloaded", "bytes", copied, "dest", req.Destination)

	err = tf.Close()
	if err != nil {
		return err
	}

	if req.Checksum != "" {
		sum, err := iu.Sha256HashFile(d.fs, tf.Name())
		if err != nil {
			return err
		}

		if !strings.EqualFold(sum, req.Checksum) {
			return fmt.Errorf("%w: expected %q got %q", model.ErrChecksumMismatch, req.Checksum, sum)
		}
	}

	return d.fs.Rename(tf.Name(), req.Destination)
}
