package drive

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	fileURLPattern  = regexp.MustCompile(`https://drive\.google\.com/file/d/([^/]+)/view`)
	sheetURLPattern = regexp.MustCompile(`https://docs\.google\.com/spreadsheets/d/([^/]+)/edit`)
	gidPattern      = regexp.MustCompile(`gid=([^&#]+)`)
)

// ToCSVURL rewrites Drive file and Sheets edit links into direct CSV download
// links. The sheet tab (gid) is kept. Other URLs are returned unchanged.
func ToCSVURL(url string) string {
	if m := fileURLPattern.FindStringSubmatch(url); m != nil {
		return "https://drive.google.com/uc?id=" + m[1]
	}

	if m := sheetURLPattern.FindStringSubmatch(url); m != nil {
		out := fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv", m[1])
		if gid := gidPattern.FindStringSubmatch(url); gid != nil {
			out += "&gid=" + gid[1]
		}
		return out
	}

	return url
}

// ExtractFileID returns the Drive file ID embedded in a Drive or Sheets link.
func ExtractFileID(url string) (string, bool) {
	for _, marker := range []string{"/file/d/", "/spreadsheets/d/"} {
		idx := strings.Index(url, marker)
		if idx < 0 {
			continue
		}
		rest := url[idx+len(marker):]
		if end := strings.IndexAny(rest, "/?#"); end >= 0 {
			rest = rest[:end]
		}
		if rest == "" {
			return "", false
		}
		return rest, true
	}
	return "", false
}
