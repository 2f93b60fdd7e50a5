package dispatch

import (
	"regexp"
	"strings"
)

// ClassifyConfig holds the operator-configured patterns checked, in
// priority order: transport exception substrings, then HTTP status
// codes, then response-body regexes.
type ClassifyConfig struct {
	ExceptionPatterns []string
	HTTPCodes         map[int]bool
	BodyPatterns      []*regexp.Regexp
}

// Classify determines whether one candidate attempt succeeded, failed in
// a way that should trigger failover, or failed in a way that should not
// (and therefore must not retry a fresh candidate).
//
// Order:
//  1. transportErr matches an unhealthy_exception_pattern  -> retryable
//  2. httpStatus is in unhealthy_http_codes                -> retryable
//  3. response body matches an unhealthy_response_body_pattern -> retryable
//  4. httpStatus is 2xx                                    -> success
//  5. otherwise                                             -> non-retryable
func Classify(transportErr error, httpStatus int, body []byte, cfg ClassifyConfig) OutcomeKind {
	if transportErr != nil {
		msg := strings.ToLower(transportErr.Error())
		for _, pattern := range cfg.ExceptionPatterns {
			if pattern == "" {
				continue
			}
			if strings.Contains(msg, strings.ToLower(pattern)) {
				return RetryableFailure
			}
		}
	}

	if cfg.HTTPCodes[httpStatus] {
		return RetryableFailure
	}

	for _, re := range cfg.BodyPatterns {
		if re != nil && re.Match(body) {
			return RetryableFailure
		}
	}

	if httpStatus >= 200 && httpStatus < 300 {
		return TerminalSuccess
	}

	return NonRetryableFailure
}
