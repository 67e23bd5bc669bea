package platform

import "strings"

// trackingParams are query-string tails stripped from a URL before it is
// handed to a provider, unless stripping would break a playlist URL.
var trackingParams = []string{"&feature=", "&t=", "&list=", "&index="}

// NormalizeURL trims whitespace and cuts the URL at the first known tracking
// query parameter before it is dispatched to registry detection or a
// provider call; any query parameters after that point are dropped too. Only
// parameters introduced with "&" are recognized. The
// "&list=" parameter is preserved when the URL is itself a playlist URL
// (playlist?list=...), since stripping it there would destroy the
// identifying parameter rather than an incidental tracking tag.
func NormalizeURL(url string) string {
	cleaned := strings.TrimSpace(url)
	isPlaylistURL := strings.Contains(cleaned, "playlist?list=")

	for _, param := range trackingParams {
		if param == "&list=" && isPlaylistURL {
			continue
		}
		if idx := strings.Index(cleaned, param); idx != -1 {
			cleaned = cleaned[:idx]
		}
	}
	return cleaned
}
