package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// maxReceiptBytes caps receipt uploads at 5 MiB, matching the bucket policy.
const maxReceiptBytes = 5 << 20

var allowedReceiptTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// Storage stores binary artifacts: payment receipts and coach avatars. The
// core only ever holds the returned URLs; artifact content stays opaque.
type Storage interface {
	UploadReceipt(ctx context.Context, file multipart.File, bookingReference string) (string, error)
	UploadAvatar(ctx context.Context, file multipart.File, userID int64) (string, error)
	Delete(ctx context.Context, fileURL string) error
	SignedURL(ctx context.Context, fileURL string) (string, error)
}

type SupabaseStorage struct {
	baseURL    string
	bucket     string
	serviceKey string
	httpClient *http.Client
}

func NewSupabaseStorage(baseURL, bucket, serviceKey string) *SupabaseStorage {
	return &SupabaseStorage{
		baseURL:    strings.TrimRight(baseURL, "/"),
		bucket:     bucket,
		serviceKey: serviceKey,
		httpClient: http.DefaultClient,
	}
}

// UploadReceipt validates the artifact and stores it under the booking's
// reference so receipts for one booking stay together.
func (s *SupabaseStorage) UploadReceipt(ctx context.Context, file multipart.File, bookingReference string) (string, error) {
	content, err := io.ReadAll(io.LimitReader(file, maxReceiptBytes+1))
	if err != nil {
		return "", fmt.Errorf("read receipt: %w", err)
	}
	if len(content) > maxReceiptBytes {
		return "", &PaymentError{Reason: "receipt must be 5MB or smaller"}
	}

	contentType := http.DetectContentType(content)
	ext, ok := allowedReceiptTypes[contentType]
	if !ok {
		return "", &PaymentError{Reason: "receipt must be a JPEG, PNG, WebP, or PDF"}
	}

	objectPath := path.Join("receipts", bookingReference, uuid.NewString()+ext)
	return s.putObject(ctx, objectPath, contentType, content)
}

// UploadAvatar stores a coach avatar image keyed by the owning user id.
func (s *SupabaseStorage) UploadAvatar(ctx context.Context, file multipart.File, userID int64) (string, error) {
	content, err := io.ReadAll(io.LimitReader(file, maxReceiptBytes+1))
	if err != nil {
		return "", fmt.Errorf("read avatar: %w", err)
	}
	if len(content) > maxReceiptBytes {
		return "", fmt.Errorf("avatar must be 5MB or smaller")
	}

	contentType := http.DetectContentType(content)
	ext, ok := allowedReceiptTypes[contentType]
	if !ok || ext == ".pdf" {
		return "", fmt.Errorf("avatar must be a JPEG, PNG, or WebP image")
	}

	objectPath := path.Join("avatars", strconv.FormatInt(userID, 10), uuid.NewString()+ext)
	return s.putObject(ctx, objectPath, contentType, content)
}

func (s *SupabaseStorage) putObject(ctx context.Context, objectPath, contentType string, content []byte) (string, error) {
	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, objectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("x-upsert", "true")
	req.Header.Set("Content-Type", contentType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("upload object: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, objectPath), nil
}

func (s *SupabaseStorage) Delete(ctx context.Context, fileURL string) error {
	objectPath, err := s.objectPathFromURL(fileURL)
	if err != nil {
		return err
	}

	deleteURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, objectPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, deleteURL, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("delete receipt: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// SignedURL exchanges a stored artifact URL for a short-lived signed link,
// so the bucket can stay private.
func (s *SupabaseStorage) SignedURL(ctx context.Context, fileURL string) (string, error) {
	objectPath, err := s.objectPathFromURL(fileURL)
	if err != nil {
		return "", err
	}

	signURL := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", s.baseURL, s.bucket, objectPath)
	body, err := json.Marshal(map[string]int{"expiresIn": 3600})
	if err != nil {
		return "", fmt.Errorf("marshal signed url payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, signURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build signed url request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("get signed url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("get signed url: status %d: %s", resp.StatusCode, strings.TrimSpace(string(responseBody)))
	}

	var response struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("decode signed url response: %w", err)
	}
	if response.SignedURL == "" {
		return "", fmt.Errorf("signed url missing from response")
	}

	return fmt.Sprintf("%s/storage/v1%s", s.baseURL, response.SignedURL), nil
}

func (s *SupabaseStorage) objectPathFromURL(receiptURL string) (string, error) {
	parsed, err := url.Parse(receiptURL)
	if err != nil {
		return "", fmt.Errorf("parse receipt url: %w", err)
	}

	publicPrefix := "/storage/v1/object/public/" + s.bucket + "/"
	objectPrefix := "/storage/v1/object/" + s.bucket + "/"

	switch {
	case strings.HasPrefix(parsed.Path, publicPrefix):
		return strings.TrimPrefix(parsed.Path, publicPrefix), nil
	case strings.HasPrefix(parsed.Path, objectPrefix):
		return strings.TrimPrefix(parsed.Path, objectPrefix), nil
	default:
		return "", fmt.Errorf("receipt url does not belong to configured bucket")
	}
}
