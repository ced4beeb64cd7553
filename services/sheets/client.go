// Package sheets downloads the published TA spreadsheet and turns it into raw feed rows.
package sheets

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/ftad-ncr/tapmonitor/core"
	"github.com/ftad-ncr/tapmonitor/core/feed"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	defaultTimeout = 15 * time.Second
	maxBodySize    = 32 << 20
)

var (
	ErrUnexpectedStatus = errors.New("unexpected feed response status")
	ErrFeedTooLarge     = errors.New("feed export exceeds the size limit")
)

// Client fetches the spreadsheet export.
type Client struct {
	url    string
	format string
	sheet  string
	http   *http.Client

	maxBody int64
}

func NewClient(conf core.FeedConfig, hc *http.Client) *Client {
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if hc == nil {
		hc = &http.Client{}
	}
	if hc.Timeout == 0 {
		hc.Timeout = timeout
	}
	format := conf.Format
	if format == "" {
		format = FormatCSV
	}
	return &Client{url: conf.URL, format: format, sheet: conf.Sheet, http: hc, maxBody: maxBodySize}
}

func (c *Client) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building feed request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetching feed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrUnexpectedStatus, "fetching feed: %d", resp.StatusCode)
	}
	// one byte past the limit tells a full export from a cut one
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, errors.Wrap(err, "reading feed")
	}
	if int64(len(body)) > c.maxBody {
		return nil, errors.Wrapf(ErrFeedTooLarge, "reading feed: more than %d bytes", c.maxBody)
	}
	return body, nil
}

// FetchRows downloads the export and decodes it into rows.
// Transport and decoding failures are returned as errors; the caller decides whether to keep stale data.
func (c *Client) FetchRows(ctx context.Context) ([]feed.Row, error) {
	body, err := c.download(ctx)
	if err != nil {
		return nil, err
	}
	if c.format == FormatXLSX {
		return DecodeXLSX(bytes.NewReader(body), c.sheet)
	}
	return feed.Tokenize(string(body)), nil
}

// DecodeXLSX reads the named sheet ("" = first sheet) of a workbook.
func DecodeXLSX(r io.Reader, sheet string) ([]feed.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %q", sheet)
	}
	return feed.CleanRows(raw), nil
}
