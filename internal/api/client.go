// Package api はジョブAPIを呼び出す HTTP クライアントです。jobs.Backend を実装します。
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	fiber "github.com/gofiber/fiber/v2"

	"github.com/yourusername/paper-courier/internal/jobs"
	"github.com/yourusername/paper-courier/internal/ops"
)

// DefaultTimeout はリクエストごとの既定のタイムアウトです。
const DefaultTimeout = 30 * time.Second

// Options はクライアントの設定です。
type Options struct {
	ServerURL string
	APIPrefix string
	Timeout   time.Duration
	Logger    *slog.Logger
}

// Client はジョブAPIのクライアントです。
type Client struct {
	serverURL string
	apiPrefix string
	timeout   time.Duration
	log       *slog.Logger
}

var _ jobs.Backend = (*Client)(nil)

// NewClient は Client を作成します。
func NewClient(opts Options) (*Client, error) {
	u, err := url.Parse(opts.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", opts.ServerURL)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	prefix := "/" + strings.Trim(opts.APIPrefix, "/")
	if prefix == "/" {
		prefix = ""
	}
	return &Client{
		serverURL: strings.TrimRight(opts.ServerURL, "/"),
		apiPrefix: prefix,
		timeout:   timeout,
		log:       logger,
	}, nil
}

// Resolver は同じサーバーを指す成果物の Resolver を返します。
func (c *Client) Resolver() ops.Resolver {
	return ops.NewResolver(c.serverURL, c.apiPrefix)
}

type createResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// CreateJob は入力ファイルを multipart でアップロードし、ジョブIDを返します。
// 入力は渡された順に送信します。
func (c *Client) CreateJob(ctx context.Context, spec ops.Spec, inputs []ops.Input, params ops.Params) (string, error) {
	body, contentType, err := buildMultipart(spec, inputs, params)
	if err != nil {
		return "", err
	}

	agent := fiber.Post(c.endpoint(spec.CreatePath, ""))
	agent.Set("Accept", "application/json")
	agent.ContentType(contentType)
	agent.Body(body)

	var resp createResponse
	if _, err := c.do(ctx, agent, &resp); err != nil {
		return "", err
	}
	if resp.JobID == "" {
		return "", errors.New("api: create response has no job_id")
	}
	c.log.Debug("job created", "operation", string(spec.Type), "job_id", resp.JobID, "status", resp.Status)
	return resp.JobID, nil
}

// StartProcessing は作成済みジョブの処理開始を要求します。
func (c *Client) StartProcessing(ctx context.Context, spec ops.Spec, jobID string, params ops.Params) error {
	if spec.StartPath == "" {
		return fmt.Errorf("api: %s does not take a start request", spec.Type)
	}
	agent := fiber.Post(c.endpoint(spec.StartPath, jobID))
	agent.Set("Accept", "application/json")
	if params != nil {
		if body := params.StartBody(); body != nil {
			agent.JSON(body)
		}
	}
	_, err := c.do(ctx, agent, nil)
	return err
}

// GetStatus はジョブの状態を照会します。
func (c *Client) GetStatus(ctx context.Context, spec ops.Spec, jobID string) (jobs.StatusReport, error) {
	agent := fiber.Get(c.endpoint(spec.StatusPath, jobID))
	agent.Set("Accept", "application/json")

	var raw map[string]json.RawMessage
	if _, err := c.do(ctx, agent, &raw); err != nil {
		return jobs.StatusReport{}, err
	}
	return parseStatus(raw)
}

// DownloadInfo はダウンロードした成果物の情報です。
type DownloadInfo struct {
	Filename    string
	ContentType string
	Size        int64
}

// Download は成果物を取得して w に書き込みます。
func (c *Client) Download(ctx context.Context, loc ops.Locator, w io.Writer) (DownloadInfo, error) {
	agent := fiber.Get(loc.URL)
	// キャンセル後も送信中のゴルーチンが参照するため、プールには戻さない
	resp := new(fiber.Response)
	agent.SetResponse(resp)

	body, err := c.do(ctx, agent, nil)
	if err != nil {
		return DownloadInfo{}, err
	}

	info := DownloadInfo{
		Filename:    loc.Name,
		ContentType: string(resp.Header.ContentType()),
	}
	if _, params, err := mime.ParseMediaType(string(resp.Header.Peek(fiber.HeaderContentDisposition))); err == nil && params["filename"] != "" {
		info.Filename = params["filename"]
	}
	n, err := w.Write(body)
	info.Size = int64(n)
	if err != nil {
		return info, fmt.Errorf("api: failed to write download: %w", err)
	}
	return info, nil
}

func (c *Client) endpoint(template, jobID string) string {
	return c.serverURL + c.apiPrefix + ops.Path(template, jobID)
}

type result struct {
	code int
	body []byte
	errs []error
}

// do はリクエストを送信し、2xx 以外は *HTTPError を返します。ctx のキャンセルで待機をやめます。
func (c *Client) do(ctx context.Context, agent *fiber.Agent, v any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(agent)
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(c.timeout)
	}

	done := make(chan result, 1)
	go func() {
		code, body, errs := agent.Bytes()
		done <- result{code: code, body: body, errs: errs}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-done:
	}

	if len(res.errs) > 0 {
		return nil, fmt.Errorf("api: error sending request: %w", res.errs[0])
	}
	if res.code < 200 || res.code >= 300 {
		return nil, newHTTPError(res.code, res.body)
	}
	if v != nil && len(res.body) > 0 {
		if err := json.Unmarshal(res.body, v); err != nil {
			return nil, fmt.Errorf("api: error decoding response: %w", err)
		}
	}
	return res.body, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// buildMultipart は作成リクエストの本文を組み立てます。各ファイルには判定した Content-Type を付けます。
func buildMultipart(spec ops.Spec, inputs []ops.Input, params ops.Params) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if params != nil {
		for _, f := range params.FormFields() {
			if err := mw.WriteField(f.Name, f.Value); err != nil {
				return nil, "", fmt.Errorf("api: failed to write form field %s: %w", f.Name, err)
			}
		}
	}

	for _, in := range inputs {
		ctype := in.MIME
		if ctype == "" {
			detected, err := mimetype.DetectFile(in.Path)
			if err != nil {
				return nil, "", fmt.Errorf("api: failed to detect content type of %s: %w", in.Path, err)
			}
			ctype = detected.String()
		}
		if mediaType, _, err := mime.ParseMediaType(ctype); err == nil {
			ctype = mediaType
		}

		name := in.Name
		if name == "" {
			name = in.Path
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(spec.UploadField), quoteEscaper.Replace(name)))
		header.Set("Content-Type", ctype)

		part, err := mw.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("api: failed to create part: %w", err)
		}
		if err := copyFile(part, in.Path); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("api: failed to finish multipart body: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("api: failed to open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("api: failed to read %s: %w", path, err)
	}
	return nil
}
