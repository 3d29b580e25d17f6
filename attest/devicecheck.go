// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package attest

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DeviceCheckProduction  = "https://api.devicecheck.apple.com"
	DeviceCheckDevelopment = "https://api.development.devicecheck.apple.com"

	deviceCheckTokenTTL = time.Hour
)

// DeviceCheck validates iOS device tokens against Apple's DeviceCheck
// service using an ES256 provider token.
type DeviceCheck struct {
	KeyID    string
	TeamID   string
	Key      *ecdsa.PrivateKey
	Endpoint string
	Client   *http.Client
	Now      func() time.Time
}

// NewDeviceCheck parses the .p8 private key contents.
func NewDeviceCheck(keyID, teamID string, p8 []byte, development bool) (*DeviceCheck, error) {
	if keyID == "" || teamID == "" {
		return nil, fmt.Errorf("devicecheck: key id and team id required")
	}
	key, err := jwt.ParseECPrivateKeyFromPEM(p8)
	if err != nil {
		return nil, fmt.Errorf("devicecheck: invalid p8 key: %w", err)
	}

	endpoint := DeviceCheckProduction
	if development {
		endpoint = DeviceCheckDevelopment
	}
	return &DeviceCheck{
		KeyID:    keyID,
		TeamID:   teamID,
		Key:      key,
		Endpoint: endpoint,
		Client:   &http.Client{},
		Now:      time.Now,
	}, nil
}

type validateDeviceTokenRequest struct {
	DeviceToken   string `json:"device_token"`
	TransactionID string `json:"transaction_id"`
	Timestamp     int64  `json:"timestamp"`
}

// providerToken signs the JWT Apple expects in the Authorization header.
func (d *DeviceCheck) providerToken(now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.RegisteredClaims{
		Issuer:    d.TeamID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(deviceCheckTokenTTL)),
	})
	token.Header["kid"] = d.KeyID
	return token.SignedString(d.Key)
}

func (d *DeviceCheck) Verify(ctx context.Context, token string) (bool, error) {
	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}

	bearer, err := d.providerToken(now)
	if err != nil {
		return false, fmt.Errorf("devicecheck: failed to sign provider token: %w", err)
	}

	body, err := json.Marshal(validateDeviceTokenRequest{
		DeviceToken:   token,
		TransactionID: uuid.NewString(),
		Timestamp:     now.UnixMilli(),
	})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.Endpoint+"/v1/validate_device_token", bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("devicecheck: request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxVerdictResponseBytes))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusBadRequest:
		// Apple answers 400 for malformed or unknown device tokens.
		return false, nil
	}
	return false, fmt.Errorf("devicecheck: unexpected status %d", resp.StatusCode)
}
