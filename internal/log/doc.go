// Package log provides slog-based logging that never writes account secrets
// or raw positions.
//
// The SecureHandler wraps any slog.Handler and masks:
//   - credentials (password, passwd, username, email)
//   - cookie headers and Google session cookie names (SID, HSID, SSID,
//     APISID, SAPISID, GAPS, LSID, NID)
//   - raw coordinates (latitude, longitude)
//   - values that look like secrets regardless of their key: cookie header
//     strings, e-mail addresses, Google API keys, bearer tokens
//
// Masking applies in verbose mode too, so debug logs of a failing login can
// be shared without leaking the account.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("stage response", "set-cookie", values) // masked
//	slog.SetDefault(logger)
package log
