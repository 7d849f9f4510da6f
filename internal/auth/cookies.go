package auth

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CookieFormat names a cookie import format
type CookieFormat string

const (
	FormatJSON     CookieFormat = "json"
	FormatNetscape CookieFormat = "netscape"
)

// jsonCookie accepts both the stored format and the browser-extension export
// format, which names the expiry "expirationDate"
type jsonCookie struct {
	Name           string  `json:"name"`
	Value          string  `json:"value"`
	Domain         string  `json:"domain"`
	Path           string  `json:"path"`
	Expires        float64 `json:"expires"`
	ExpirationDate float64 `json:"expirationDate"`
	HTTPOnly       bool    `json:"httpOnly"`
	Secure         bool    `json:"secure"`
	SameSite       string  `json:"sameSite"`
}

// ParseCookies reads cookies from r in the given format
func ParseCookies(r io.Reader, format CookieFormat) ([]Cookie, error) {
	switch format {
	case FormatJSON:
		return ParseJSONCookies(r)
	case FormatNetscape:
		return ParseNetscapeCookies(r)
	default:
		return nil, fmt.Errorf("unsupported format: %s (use: json, netscape)", format)
	}
}

// ParseJSONCookies decodes a JSON array of cookies
func ParseJSONCookies(r io.Reader) ([]Cookie, error) {
	var raw []jsonCookie
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		if c.Name == "" {
			continue
		}
		expires := c.Expires
		if expires == 0 {
			expires = c.ExpirationDate
		}
		cookies = append(cookies, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     defaultPath(c.Path),
			Expires:  expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: normalizeSameSite(c.SameSite),
		})
	}
	return cookies, nil
}

// ParseNetscapeCookies reads the tab separated cookies.txt format used by curl
// and wget. Lines prefixed with #HttpOnly_ mark HTTP-only cookies.
func ParseNetscapeCookies(r io.Reader) ([]Cookie, error) {
	var cookies []Cookie
	scanner := bufio.NewScanner(r)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())

		httpOnly := false
		if rest, ok := strings.CutPrefix(line, "#HttpOnly_"); ok {
			line, httpOnly = rest, true
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 7 {
			fields = strings.Fields(line)
		}
		if len(fields) < 6 {
			return nil, fmt.Errorf("line %d: expected 7 fields, got %d", lineNo, len(fields))
		}

		cookie := Cookie{
			Domain:   fields[0],
			Path:     defaultPath(fields[2]),
			Secure:   strings.EqualFold(fields[3], "TRUE"),
			Name:     fields[5],
			HTTPOnly: httpOnly,
		}
		if len(fields) > 6 {
			cookie.Value = fields[6]
		}

		if fields[4] != "0" {
			expiry, err := strconv.ParseInt(fields[4], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid expiry %q", lineNo, fields[4])
			}
			cookie.Expires = float64(expiry)
		}

		cookies = append(cookies, cookie)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cookies, nil
}

func defaultPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

func normalizeSameSite(s string) string {
	switch strings.ToLower(s) {
	case "strict":
		return "Strict"
	case "lax":
		return "Lax"
	case "none", "no_restriction":
		return "None"
	default:
		return ""
	}
}
