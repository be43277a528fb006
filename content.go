package main

// CareerItem is one entry in the career timeline. Order in the slice is
// display order; dates are free-form strings.
type CareerItem struct {
	Date  string `json:"date"`
	Title string `json:"title"`
	Role  string `json:"role"`
}

// WorkItem is one entry in the works gallery. Img and URL may each be empty;
// Img holds either an external URL or an embedded data URI.
type WorkItem struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Img   string `json:"img"`
	URL   string `json:"url"`
}

// SiteData is the complete content document for the site. It is fully
// JSON-serializable and persisted as a single snapshot row.
type SiteData struct {
	ProfileImg string       `json:"profileImg"`
	Bio        string       `json:"bio"`
	Career     []CareerItem `json:"career"`
	Works      []WorkItem   `json:"works"`
}

// Clone returns a deep copy. Edit sessions own their copy outright, so
// mutations never alias committed data.
func (d SiteData) Clone() SiteData {
	out := d
	out.Career = make([]CareerItem, len(d.Career))
	copy(out.Career, d.Career)
	out.Works = make([]WorkItem, len(d.Works))
	copy(out.Works, d.Works)
	return out
}

// defaultSiteData is the built-in content used when no snapshot exists yet
// (first boot) or the stored one cannot be parsed.
func defaultSiteData() SiteData {
	return SiteData{
		ProfileImg: "/static/images/profile.jpg",
		Bio: `I love building software that's both useful and fun, and I'm always curious
about how things work behind the scenes. Most of my projects start with a
simple idea and turn into a chance to learn something new.`,
		Career: []CareerItem{
			{Date: "2023 - Present", Title: "Software Engineer", Role: "Backend services and tooling in Go"},
			{Date: "2019 - 2023", Title: "Western Governors University", Role: "Bachelor of Computer Science"},
		},
		Works: []WorkItem{
			{
				ID:    1,
				Title: "Terminal email client",
				Img:   "",
				URL:   "https://github.com/averyk/termmail",
			},
			{
				ID:    2,
				Title: "TUI music streamer",
				Img:   "",
				URL:   "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			},
			{
				ID:    3,
				Title: "This site",
				Img:   "/static/images/folio.png",
				URL:   "https://github.com/averyk/folio-dev",
			},
		},
	}
}
