package models

import "reelserve/hls"

// ReelserveJWT is the claim set carried by upload tokens. The catalog service
// mints one token per upload; the job payload tells us what to produce and
// where to publish it.
type ReelserveJWT struct {
	Issuer    string  `json:"iss"` // optional
	Subject   string  `json:"sub"`
	IssuedAt  int64   `json:"iat"`
	ExpiresAt int64   `json:"exp"`
	Job       JobSpec `json:"job"`
}

// JobSpec is the core job specification embedded in the token.
type JobSpec struct {
	CompletionCallback string            `json:"completionCallback,omitempty"` // callback URL
	CallbackHeaders    map[string]string `json:"callbackHeaders,omitempty"`

	// Ladder overrides the default rendition set when non-empty; order is
	// preserved into the master playlist.
	Ladder []hls.Rendition `json:"ladder,omitempty"`

	// Thumbnail requests a poster frame grab alongside the encode.
	Thumbnail *ThumbnailSpec `json:"thumbnail,omitempty"`

	// Storage backends. Each key is an access key previously registered via
	// /register, resolved server-side so tokens never carry raw credentials.
	StorageKeys map[string]string `json:"storageKeys,omitempty"` // e.g. {"s3":"abc123"}

	// Direct host serving via the Reelserve HTTP server.
	DirectHost bool   `json:"directHost,omitempty"`
	SubDir     string `json:"subDir,omitempty"` // tenant folder under the serve root
}

// ThumbnailSpec configures the poster frame grab.
type ThumbnailSpec struct {
	AtSeconds int `json:"atSeconds,omitempty"` // 0 means the default offset
}
