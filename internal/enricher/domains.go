package enricher

import (
	"net/url"
	"strings"

	"github.com/karliky/turrero-pipeline/internal/types"
)

// mediaDomains maps known destination hosts to their media classification.
// The set is fixed: video platforms, the book catalog, and the professional
// network. Anything else stays an unclassified card.
var mediaDomains = map[string]string{
	"youtube.com":   types.MediaYouTube,
	"youtu.be":      types.MediaYouTube,
	"vimeo.com":     types.MediaVimeo,
	"goodreads.com": types.MediaGoodreads,
	"linkedin.com":  types.MediaLinkedIn,
	"lnkd.in":       types.MediaLinkedIn,
}

// ClassifyDomain classifies a resolved URL's host against the known media
// domains. Returns the media name and true for a recognized domain.
func ClassifyDomain(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")

	media, ok := mediaDomains[host]
	return media, ok
}
