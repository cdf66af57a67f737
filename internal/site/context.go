package site

import (
	"html/template"

	"git.home.luguber.info/inful/streamsite/internal/config"
	"git.home.luguber.info/inful/streamsite/internal/content"
	"git.home.luguber.info/inful/streamsite/internal/render"
)

// Base context keys shared by every page.
const (
	KeyTwitch        = "twitch"
	KeyYouTube       = "youtube"
	KeyDiscord       = "discord"
	KeyBaseURL       = "base_url"
	KeyStreamCount   = "stream_count"
	KeyMusicCount    = "music_count"
	KeyPlaylistCount = "playlist_count"
	KeyDev           = "dev"
)

// Per-page keys.
const (
	KeyURL         = "url"
	KeyMusic       = "music"
	KeyPlaylists   = "playlists"
	KeyStreams     = "streams"
	KeyPage        = "page"
	KeyPageCount   = "page_count"
	KeyIsFirstPage = "is_first_page"
	KeyIsLastPage  = "is_last_page"
)

// BaseContext builds the context every page derives from. dev is empty in
// production and holds the reload script in dev mode.
func BaseContext(site *config.Site, lib *content.Library, dev template.HTML) render.Context {
	return render.NewContext(map[string]any{
		KeyTwitch:        site.Twitch,
		KeyYouTube:       site.YouTube,
		KeyDiscord:       site.Discord,
		KeyBaseURL:       site.BaseURL,
		KeyStreamCount:   lib.Streams.Len(),
		KeyMusicCount:    lib.Music.Len(),
		KeyPlaylistCount: lib.Playlists.Len(),
		KeyDev:           dev,
	})
}
