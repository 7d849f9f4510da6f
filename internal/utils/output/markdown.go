package output

import (
	"fmt"
	"os"
	"path/filepath"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	urlutil "github.com/law-makers/filmexport/internal/utils/url"
	"github.com/rs/zerolog/log"
)

// ToMarkdown renders cleaned page HTML as Markdown, resolving links against pageURL
func ToMarkdown(cleanedHTML, pageURL string) (string, error) {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	converter.AddRules(md.Rule{
		Filter: []string{"a"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			href, exists := selec.Attr("href")
			if !exists {
				return nil
			}
			str := fmt.Sprintf("[%s](%s)", selec.Text(), urlutil.ResolveURL(pageURL, href))
			return &str
		},
	})

	return converter.ConvertString(cleanedHTML)
}

// SaveSnapshot writes a failing page to dir as page-<n>.html and page-<n>.md.
// It returns the paths written.
func SaveSnapshot(dir string, page int, pageURL, rawHTML string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	cleaned, err := CleanHTML(rawHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to clean page %d: %w", page, err)
	}

	htmlPath := filepath.Join(dir, fmt.Sprintf("page-%d.html", page))
	if err := os.WriteFile(htmlPath, []byte(cleaned), 0644); err != nil {
		return nil, err
	}
	written := []string{htmlPath}

	mdStr, err := ToMarkdown(cleaned, pageURL)
	if err != nil {
		log.Warn().Err(err).Int("page", page).Msg("Failed to convert snapshot to markdown")
		return written, nil
	}

	mdPath := filepath.Join(dir, fmt.Sprintf("page-%d.md", page))
	if err := os.WriteFile(mdPath, []byte(mdStr), 0644); err != nil {
		return written, err
	}
	return append(written, mdPath), nil
}
