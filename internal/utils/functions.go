package utils

import (
	"fmt"
	"net/url"
	"path"
	"time"
)

func GetRandomUserAgent() string {
	return userAgents[time.Now().UnixNano()%int64(len(userAgents))]
}

// IsValidURL reports whether raw parses into an absolute URL with both a
// scheme and a host. Anything else is skipped before fetching.
func IsValidURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return parsed.Scheme != "" && parsed.Host != ""
}

// FilenameFromURL derives the output file name from the URL's path
// component, falling back to DefaultFileName when the path is empty.
func FilenameFromURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return DefaultFileName
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return DefaultFileName
	}
	return name
}

func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
