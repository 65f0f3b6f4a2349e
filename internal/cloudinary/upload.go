package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"gymtrack/internal/logging"
	"gymtrack/internal/services"
)

// PhotoTransformation limits uploads to 1600x1600 and lets Cloudinary pick an
// economical quality.
const PhotoTransformation = "c_limit,w_1600,h_1600,q_auto:eco"

// UploadOptions controls where and how an upload is stored.
type UploadOptions struct {
	Folder         string
	Transformation string
}

// UploadResult is the subset of the upload response gymtrack persists.
type UploadResult struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Bytes     int64  `json:"bytes"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
}

// Upload sends an image with a signed multipart request.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader, opts UploadOptions) (UploadResult, error) {
	if c == nil {
		return UploadResult{}, errors.New("cloudinary: client is nil")
	}
	if r == nil {
		return UploadResult{}, services.Wrap(services.ErrValidation, "cloudinary", "upload", "missing file content", nil)
	}

	params := map[string]string{
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	if folder := strings.TrimSpace(opts.Folder); folder != "" {
		params["folder"] = folder
	}
	if t := strings.TrimSpace(opts.Transformation); t != "" {
		params["transformation"] = t
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range params {
		if err := writer.WriteField(key, value); err != nil {
			return UploadResult{}, fmt.Errorf("cloudinary: write field %s: %w", key, err)
		}
	}
	if err := writer.WriteField("api_key", c.apiKey); err != nil {
		return UploadResult{}, fmt.Errorf("cloudinary: write api key: %w", err)
	}
	if err := writer.WriteField("signature", Sign(params, c.apiSecret)); err != nil {
		return UploadResult{}, fmt.Errorf("cloudinary: write signature: %w", err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return UploadResult{}, fmt.Errorf("cloudinary: create file part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return UploadResult{}, fmt.Errorf("cloudinary: copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("cloudinary: close multipart: %w", err)
	}

	endpoint := c.baseURL.JoinPath("v1_1", c.cloudName, "image", "upload")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), &body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("cloudinary: build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return UploadResult{}, services.Wrap(services.ErrTransient, "cloudinary", "upload", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return UploadResult{}, newStatusError("upload", resp)
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return UploadResult{}, services.Wrap(services.ErrExternalService, "cloudinary", "upload", "decode response", err)
	}
	c.logger.Info("cloudinary upload complete",
		logging.PublicID(result.PublicID),
		logging.Int64("bytes", result.Bytes),
	)
	return result, nil
}

// Sign computes the Cloudinary request signature: the parameters sorted by
// name, joined as key=value pairs with '&', followed by the API secret, hashed
// with SHA-1. Empty values are not signed.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for key, value := range params {
		if value == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}
