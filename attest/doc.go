// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package attest checks mobile OS attestation tokens.

# Dispatch

OS is a tagged value (android, ios). A Dispatcher holds one Verifier per OS
and routes each token to the matching one:

	d := &attest.Dispatcher{Android: play, IOS: deviceCheck, Timeout: 5 * time.Second}
	if !d.Verify(ctx, attest.Android, token) {
		// reject
	}

Verify never returns an error: verifier errors, timeouts, panics, unknown
OS values and unconfigured verifiers are all invalid.

# Verifiers

  - PlayIntegrity: Google Play Integrity decodeIntegrityToken, service
    account OAuth2 via golang.org/x/oauth2/google
  - DeviceCheck: Apple DeviceCheck validate_device_token, ES256 provider
    token via golang-jwt
  - Static: a single fixed token (development)
  - Fallback: Primary, then Secondary

Adding an OS means adding a constant and a Dispatcher field.
*/
package attest
