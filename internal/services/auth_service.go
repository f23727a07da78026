package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"condoPortal/internal/models"
)

// Error definitions
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUpstream           = errors.New("upstream login failed")
	ErrIncompleteLogin    = errors.New("upstream login response missing token or user")
)

// LoginResult is what the upstream API returns for a successful login
type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthService exchanges credentials with the upstream API
type AuthService struct {
	loginURL string
	client   *http.Client
}

// NewAuthService creates a service that posts to baseURL + "/auth/login"
func NewAuthService(baseURL string, timeout time.Duration) *AuthService {
	return &AuthService{
		loginURL: strings.TrimRight(baseURL, "/") + "/auth/login",
		client:   &http.Client{Timeout: timeout},
	}
}

// Login returns the session the upstream API issues for email/password
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	payload, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.loginURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusBadRequest:
		io.Copy(io.Discard, resp.Body)
		return nil, ErrInvalidCredentials
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var result LoginResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}

	if result.Token == "" || result.User == nil {
		return nil, ErrIncompleteLogin
	}

	return &result, nil
}
