// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package attest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	playIntegrityEndpoint = "https://playintegrity.googleapis.com"
	playIntegrityScope    = "https://www.googleapis.com/auth/playintegrity"

	verdictPlayRecognized   = "PLAY_RECOGNIZED"
	verdictDeviceIntegrity  = "MEETS_DEVICE_INTEGRITY"
	maxVerdictResponseBytes = 1 << 20
)

// PlayIntegrity decodes Android integrity tokens with Google's
// decodeIntegrityToken API and checks the verdicts.
type PlayIntegrity struct {
	PackageName string
	// Client must attach OAuth2 credentials. See NewPlayIntegrity.
	Client   *http.Client
	Endpoint string
}

// NewPlayIntegrity builds a verifier authenticated with a service-account
// JSON key. ctx must outlive the verifier; it backs token refreshes.
func NewPlayIntegrity(ctx context.Context, packageName string, credentialsJSON []byte) (*PlayIntegrity, error) {
	if packageName == "" {
		return nil, fmt.Errorf("play integrity: package name required")
	}
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, playIntegrityScope)
	if err != nil {
		return nil, fmt.Errorf("play integrity: failed to load credentials: %w", err)
	}
	return &PlayIntegrity{
		PackageName: packageName,
		Client:      oauth2.NewClient(ctx, creds.TokenSource),
		Endpoint:    playIntegrityEndpoint,
	}, nil
}

type decodeIntegrityRequest struct {
	IntegrityToken string `json:"integrity_token"`
}

type decodeIntegrityResponse struct {
	TokenPayloadExternal struct {
		RequestDetails struct {
			RequestPackageName string `json:"requestPackageName"`
		} `json:"requestDetails"`
		AppIntegrity struct {
			AppRecognitionVerdict string `json:"appRecognitionVerdict"`
		} `json:"appIntegrity"`
		DeviceIntegrity struct {
			DeviceRecognitionVerdict []string `json:"deviceRecognitionVerdict"`
		} `json:"deviceIntegrity"`
	} `json:"tokenPayloadExternal"`
}

func (p *PlayIntegrity) Verify(ctx context.Context, token string) (bool, error) {
	body, err := json.Marshal(decodeIntegrityRequest{IntegrityToken: token})
	if err != nil {
		return false, err
	}

	endpoint := p.Endpoint
	if endpoint == "" {
		endpoint = playIntegrityEndpoint
	}
	u := endpoint + "/v1/" + url.PathEscape(p.PackageName) + ":decodeIntegrityToken"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("play integrity: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxVerdictResponseBytes))
		return false, fmt.Errorf("play integrity: unexpected status %d", resp.StatusCode)
	}

	var verdict decodeIntegrityResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxVerdictResponseBytes)).Decode(&verdict); err != nil {
		return false, fmt.Errorf("play integrity: failed to decode verdict: %w", err)
	}

	payload := verdict.TokenPayloadExternal
	if payload.RequestDetails.RequestPackageName != p.PackageName {
		return false, nil
	}
	if payload.AppIntegrity.AppRecognitionVerdict != verdictPlayRecognized {
		return false, nil
	}
	if !slices.Contains(payload.DeviceIntegrity.DeviceRecognitionVerdict, verdictDeviceIntegrity) {
		return false, nil
	}
	return true, nil
}
