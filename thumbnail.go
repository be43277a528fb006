package main

import "regexp"

// placeholderThumb is shown for works with no image and no recognizable
// video URL.
const placeholderThumb = "/static/images/work-placeholder.png"

// The three YouTube URL shapes we recognize: short links, embed paths and
// watch?v= parameters. Each captures a candidate id; validity is decided by
// length, not by the pattern.
var youtubeIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtu\.be/([\w-]+)`),
	regexp.MustCompile(`youtube\.com/embed/([\w-]+)`),
	regexp.MustCompile(`youtube\.com/watch\?(?:.*&)?v=([\w-]+)`),
}

// youtubeVideoID extracts an 11-character video id from rawURL. Candidates
// of any other length are treated as a non-match, never an error.
func youtubeVideoID(rawURL string) (string, bool) {
	for _, re := range youtubeIDPatterns {
		if m := re.FindStringSubmatch(rawURL); m != nil && len(m[1]) == 11 {
			return m[1], true
		}
	}
	return "", false
}

// ResolveThumbnail derives the display image for a work item. First match
// wins: an explicit image, then a YouTube thumbnail constructed from the
// work's URL, then the generic placeholder. Pure string work; nothing is
// fetched and the thumbnail's existence is never verified.
func ResolveThumbnail(w WorkItem) string {
	if w.Img != "" {
		return w.Img
	}
	if id, ok := youtubeVideoID(w.URL); ok {
		return "https://i.ytimg.com/vi/" + id + "/hqdefault.jpg"
	}
	return placeholderThumb
}
