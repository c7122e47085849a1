package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

// maxResponseBytes bounds how much of a response body is read
const maxResponseBytes = 8 << 20

// Image is the payload of a single prediction request
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// Config holds client configuration
type Config struct {
	// Endpoint is the service base URL; /predict/ is appended
	Endpoint string

	// Timeout for the whole request, 0 disables it
	Timeout time.Duration

	// FieldName is the multipart part carrying the image
	FieldName string

	// MinClasses and MaxClasses bound the column count of a valid prediction
	MinClasses int
	MaxClasses int
}

// Client talks to the remote classification service
type Client struct {
	config  Config
	client  *http.Client
	baseURL *url.URL
}

// New creates a client; httpClient may be nil
func New(config Config, httpClient *http.Client) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("predict endpoint is required")
	}
	baseURL, err := url.Parse(config.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid predict endpoint: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid predict endpoint scheme %q", baseURL.Scheme)
	}
	if config.FieldName == "" {
		config.FieldName = "file"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		config:  config,
		client:  httpClient,
		baseURL: baseURL,
	}, nil
}

// URL returns the full predict URL
func (c *Client) URL() string {
	return c.baseURL.JoinPath("predict/").String()
}

// Predict uploads img and returns the decoded, validated score matrix.
// All failures are *UploadError.
func (c *Client) Predict(ctx context.Context, img Image) (Matrix, error) {
	body, contentType, err := c.buildMultipart(img)
	if err != nil {
		return nil, NewErrorWithCause(KindNetwork, "failed to build multipart body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(), body)
	if err != nil {
		return nil, NewErrorWithCause(KindNetwork, "failed to create request", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, NewErrorWithCause(KindNetwork, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	// a non-2xx status is a server error even when its body is cut short
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewServerError(resp.StatusCode, serverMessage(resp.StatusCode, data))
	}
	if err != nil {
		return nil, NewErrorWithCause(KindNetwork, "failed to read response body", err)
	}

	return c.decode(data)
}

func (c *Client) decode(data []byte) (Matrix, error) {
	var payload struct {
		Prediction *Matrix `json:"prediction"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, NewErrorWithCause(KindDecode, "failed to decode response", err)
	}
	if payload.Prediction == nil {
		return nil, NewError(KindDecode, "response has no prediction field")
	}

	m := *payload.Prediction
	if err := m.Validate(c.config.MinClasses, c.config.MaxClasses); err != nil {
		return nil, err
	}
	return m, nil
}

// buildMultipart writes a single part carrying the image bytes
func (c *Client) buildMultipart(img Image) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	contentType := img.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	name := img.Name
	if name == "" {
		name = "upload"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(c.config.FieldName), escapeQuotes(name)))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// serverMessage extracts a readable message from an error body.
// FastAPI style {"detail": ...} and {"error": ...} bodies are recognised.
func serverMessage(status int, body []byte) string {
	var errorResp struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if json.Unmarshal(body, &errorResp) == nil {
		if errorResp.Error != "" {
			return errorResp.Error
		}
		var detail string
		if len(errorResp.Detail) > 0 && json.Unmarshal(errorResp.Detail, &detail) == nil && detail != "" {
			return detail
		}
	}
	return fmt.Sprintf("request failed with status %d", status)
}
