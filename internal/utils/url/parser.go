package urlutil

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultBaseURL is the ratings listing, ordered by rating date
const DefaultBaseURL = "https://www.filmaffinity.com/en/userratings.php"

// ValidateURL performs comprehensive URL validation
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: must be http or https, got %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}

	return nil
}

// PageURL builds the list-view URL of one page of a user's ratings. Query
// parameters already present on base are kept.
func PageURL(base string, userID, page int) string {
	u, err := url.Parse(base)
	if err != nil {
		return fmt.Sprintf("%s?user_id=%d&orderby=4&p=%d&chv=list", base, userID, page)
	}

	q := u.Query()
	q.Set("user_id", strconv.Itoa(userID))
	q.Set("orderby", "4")
	q.Set("p", strconv.Itoa(page))
	q.Set("chv", "list")
	u.RawQuery = q.Encode()
	return u.String()
}

// Origin returns scheme://host of urlStr, used to scope cookies
func Origin(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return urlStr
	}
	return u.Scheme + "://" + u.Host
}

// ResolveURL makes a link found on a listing page absolute. Links that cannot be
// followed (fragments, javascript:, mailto:) and unparsable input come back as is.
func ResolveURL(pageURL, href string) string {
	if href == "" || strings.HasPrefix(href, "#") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil || u.IsAbs() {
		return href
	}
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return href
	}
	return base.ResolveReference(u).String()
}
