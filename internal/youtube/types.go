package youtube

// Wire types for the subset of the YouTube Data API v3 this service consumes:
// search, videos and playlistItems.

type thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type thumbnails struct {
	Default thumbnail `json:"default"`
	Medium  thumbnail `json:"medium"`
	High    thumbnail `json:"high"`
}

type resourceID struct {
	Kind    string `json:"kind"`
	VideoID string `json:"videoId"`
}

type snippet struct {
	Title      string     `json:"title"`
	Thumbnails thumbnails `json:"thumbnails"`
	ResourceID resourceID `json:"resourceId"` // playlistItems only
}

type contentDetails struct {
	Duration string `json:"duration"`
}

type videoItem struct {
	ID             string         `json:"id"`
	Snippet        snippet        `json:"snippet"`
	ContentDetails contentDetails `json:"contentDetails"`
}

type videosResponse struct {
	Items []videoItem `json:"items"`
}

type playlistItem struct {
	Snippet snippet `json:"snippet"`
}

type playlistItemsResponse struct {
	Items []playlistItem `json:"items"`
}

type searchItemID struct {
	Kind    string `json:"kind"`
	VideoID string `json:"videoId"`
}

type searchItem struct {
	ID      searchItemID `json:"id"`
	Snippet snippet      `json:"snippet"`
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}
