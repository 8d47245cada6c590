package main

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sdrshn-nmbr/txsched/internal/logging"
	"github.com/sdrshn-nmbr/txsched/pkg/client"
)

type cliState struct {
	mode    string
	format  string
	timeout time.Duration
	in      *bufio.Reader
	out     io.Writer
	local   *client.LocalClient
	http    *client.HTTPClient
}

func newCLIState(cfg cliConfig, in io.Reader, out io.Writer) (*cliState, error) {
	state := &cliState{
		mode:    cfg.mode,
		format:  cfg.format,
		timeout: cfg.timeout,
		in:      bufio.NewReader(in),
		out:     out,
	}

	if cfg.mode == "http" {
		httpClient, err := client.NewHTTPClient(client.HTTPOptions{
			BaseURL:          cfg.baseURL,
			HTTPClient:       &http.Client{Timeout: cfg.timeout},
			RetryPolicy:      client.DefaultRetryPolicy(),
			UserAgent:        "txsched-cli",
			MaxResponseBytes: 8 << 20,
		})
		if err != nil {
			return nil, err
		}
		state.http = httpClient
		return state, nil
	}

	opts := cfg.local
	opts.Logger = logging.Component(logging.New(os.Stderr, cfg.logLevel), "cli")
	local, err := client.OpenLocal(opts)
	if err != nil {
		return nil, err
	}
	state.local = local
	return state, nil
}

func (c *cliState) Close() {
	if c.local != nil {
		_ = c.local.Close()
		c.local = nil
	}
}

func (c *cliState) withContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

func (c *cliState) requestOptions() client.RequestOptions {
	return client.RequestOptions{}
}
