package deeplink

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/bitrise-io/go-utils/log"
	"github.com/bitrise-steplib/steps-launcher-integration/intent"
)

const (
	// QueryParameterName is the query key the web application reads the content id from.
	QueryParameterName = "amazonLauncherIntegrationContentId"
	// VideoIDDataExtraName is the string extra carrying the launch payload when it is not in the intent data URI.
	VideoIDDataExtraName = "amazonLauncherIntegrationVideoId"
)

var whitelistExp = regexp.MustCompile(`^[a-zA-Z0-9\-_:]+$`)

// Signal is the launch data derived from an inbound intent.
// RawValue is only meaningful when HasData is true.
type Signal struct {
	HasData      bool
	RawValue     string
	IsURIForm    bool
	ActionIsView bool
}

// SignalFromIntent reads the launch payload from the data URI when uriForm is set,
// otherwise from the VideoIDDataExtraName string extra.
func SignalFromIntent(in intent.Intent, uriForm bool) Signal {
	signal := Signal{
		IsURIForm:    uriForm,
		ActionIsView: in.Action == intent.ActionView,
	}

	if uriForm {
		signal.HasData = in.Data != ""
		signal.RawValue = in.Data
		return signal
	}

	signal.RawValue, signal.HasData = in.StringExtra(VideoIDDataExtraName)
	return signal
}

// Pattern is a compiled content id extraction pattern with at least one capture group.
type Pattern struct {
	exp *regexp.Regexp
}

// CompilePattern ...
func CompilePattern(expr string) (*Pattern, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, errors.New("empty deep link pattern")
	}

	exp, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to compile deep link pattern (%s): %w", expr, err)
	}
	if exp.NumSubexp() < 1 {
		return nil, fmt.Errorf("deep link pattern (%s) has no capture group", expr)
	}
	return &Pattern{exp: exp}, nil
}

// String ...
func (p *Pattern) String() string {
	if p == nil {
		return ""
	}
	return p.exp.String()
}

// Extract returns capture group 1 of the first match, or "" when nothing matches.
func (p *Pattern) Extract(s string) string {
	if p == nil {
		return ""
	}
	matches := p.exp.FindStringSubmatch(s)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}

// IsWhitelisted reports whether id is non-empty and made only of [a-zA-Z0-9-_:].
func IsWhitelisted(id string) bool {
	return whitelistExp.MatchString(id)
}

// Resolver resolves launch signals against a fixed extraction pattern.
type Resolver struct {
	pattern *Pattern
}

// NewResolver ...
func NewResolver(pattern *Pattern) Resolver {
	return Resolver{pattern: pattern}
}

// Resolve ...
func (r Resolver) Resolve(signal Signal, baseURL string) string {
	return Resolve(signal, baseURL, r.pattern)
}

// Resolve returns baseURL with the extracted content id added as a query parameter,
// or baseURL unchanged when the signal carries no usable id.
func Resolve(signal Signal, baseURL string, pattern *Pattern) string {
	if !signal.HasData || isBlank(signal.RawValue) || !signal.ActionIsView {
		return baseURL
	}

	if pattern == nil {
		log.Errorf("No deep link pattern configured, keeping url: %s", baseURL)
		return baseURL
	}

	id := pattern.Extract(signal.RawValue)
	if !IsWhitelisted(id) {
		log.Warnf("Content id (%s) did not pass the accepted character whitelist", id)
		return baseURL
	}

	resolved, err := addQueryParam(baseURL, QueryParameterName, id)
	if err != nil {
		log.Errorf("Failed to create deep link url, error: %s", err)
		return baseURL
	}
	return resolved
}

// ContentID reads the content id query parameter back from a resolved url.
func ContentID(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	values, ok := u.Query()[QueryParameterName]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[len(values)-1], true
}

// addQueryParam appends key=value to rawURL, before any fragment. The rest of rawURL is kept byte for byte.
func addQueryParam(rawURL, key, value string) (string, error) {
	if _, err := url.Parse(rawURL); err != nil {
		return "", err
	}

	param := url.QueryEscape(key) + "=" + url.QueryEscape(value)

	base, fragment, hasFragment := strings.Cut(rawURL, "#")
	switch {
	case !strings.Contains(base, "?"):
		base += "?" + param
	case strings.HasSuffix(base, "?"), strings.HasSuffix(base, "&"):
		base += param
	default:
		base += "&" + param
	}

	if hasFragment {
		return base + "#" + fragment, nil
	}
	return base, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
