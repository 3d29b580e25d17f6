// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

	if err := cliparse.LoadDotEnv(".env"); err != nil {
		log.Fatal(err)
	}
	cfg, err := cliparse.ParseFlags(os.Args[1:])

LoadDotEnv never overrides variables that are already set.

# CLI Flags and Environment Variables

CLI flags take precedence over environment variables.

	-p, --port              PORT                           default 3000
	-d, --database-url      DATABASE_URL                   default voting.db (sqlite only)
	-t, --database-type     DATABASE_TYPE                  sqlite | postgres
	--admin-key             ADMIN_KEY                      required
	--ip-hash-salt          IP_HASH_SALT                   default derived from ADMIN_KEY
	--attest-timeout        ATTEST_TIMEOUT                 default 5s
	--dev-tokens            ATTEST_DEV_TOKENS              accept mock tokens
	--play-package          PLAY_PACKAGE_NAME
	--google-credentials    GOOGLE_APPLICATION_CREDENTIALS path to service account JSON
	--apple-key-id          APPLE_KEY_ID
	--apple-team-id         APPLE_TEAM_ID
	--apple-p8              APPLE_P8_FILE_CONTENT
	--apple-development     APPLE_DEVICECHECK_DEVELOPMENT

# Validation

ParseFlags returns an error when ADMIN_KEY is missing, the port is out of
range, the database type is unknown, a postgres URL is missing, or a
duration or boolean does not parse.
*/
package cliparse
