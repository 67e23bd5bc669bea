// Package platform defines the provider capability set, the YouTube
// implementation that drives yt-dlp as a subprocess, and the registry that
// routes a URL to its first matching provider.
package platform
