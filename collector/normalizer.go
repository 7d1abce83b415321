package collector

import (
	"strings"
	"unicode"

	"github.com/Luismorlan/instag/model"
)

const (
	MaxTitleWords = 10
)

var (
	// separators tried in order, the text before the first match is kept
	titleSeparators = []string{"! ", ". ", ", "}
)

// Normalize maps a raw feed post to an ImportablePost. fallbackOwner, when
// set, is used as owner instead of the platform's owner id.
func Normalize(raw model.RawPost, fallbackOwner string) model.ImportablePost {
	caption := ""
	if raw.Caption != nil {
		caption = *raw.Caption
	}

	owner := raw.OwnerId
	if fallbackOwner != "" {
		owner = fallbackOwner
	}

	post := model.ImportablePost{
		ExternalId: raw.Id,
		Shortcode:  raw.Shortcode,
		Owner:      owner,
		Title:      DeriveTitle(caption, raw.Shortcode),
		Caption:    StripHashtags(caption),
		Type:       raw.Type,
		Date:       raw.TakenAt.UTC().Format(model.PostDateLayout),
		Likes:      derefInt64(raw.Likes),
		ViewCount:  derefInt64(raw.VideoViewCount),
		Tags:       NormalizeTags(raw.Hashtags),
	}
	if !raw.Type.IsCarousel() {
		post.Media = []model.MediaItem{model.NewMediaItem(raw.VideoUrl, raw.DisplayUrl)}
	}
	return post
}

// DeriveTitle keeps the first sentence-ish fragment of caption, at most
// MaxTitleWords words. Returns shortcode if nothing is left.
func DeriveTitle(caption, shortcode string) string {
	title := caption
	for _, sep := range titleSeparators {
		title = strings.SplitN(title, sep, 2)[0]
	}
	words := strings.Split(title, " ")
	if len(words) > MaxTitleWords {
		words = words[:MaxTitleWords]
	}
	title = strings.Join(words, " ")
	if strings.TrimSpace(title) == "" {
		return shortcode
	}
	return title
}

// StripHashtags removes whitespace delimited tokens starting with '#' and
// keeps all whitespace around them. Any unicode space delimits a token.
func StripHashtags(caption string) string {
	var b strings.Builder
	b.Grow(len(caption))
	atTokenStart, inHashtag := true, false
	for _, r := range caption {
		if unicode.IsSpace(r) {
			atTokenStart, inHashtag = true, false
			b.WriteRune(r)
			continue
		}
		if atTokenStart && r == '#' {
			inHashtag = true
		}
		atTokenStart = false
		if !inHashtag {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeTags lower-cases hashtags, drops a leading '#' and empty names,
// and removes duplicates keeping first-seen order.
func NormalizeTags(hashtags []string) []string {
	seen := map[string]bool{}
	tags := []string{}
	for _, h := range hashtags {
		name := strings.ToLower(strings.TrimSpace(strings.TrimLeft(h, "#")))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		tags = append(tags, name)
	}
	return tags
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
