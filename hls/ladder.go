package hls

// Rendition is one target quality in the encode ladder. Bitrate values are
// passed through to the encoder verbatim (e.g. "5000k").
type Rendition struct {
	Name    string `json:"name"`
	Height  int    `json:"height"`
	Bitrate string `json:"bitrate"`
	MaxRate string `json:"maxrate"`
	BufSize string `json:"bufsize"`
}

// DefaultLadder is the rendition set used when an upload does not override it.
// Order matters: it is the listing order in the master playlist.
var DefaultLadder = []Rendition{
	{Name: "1080p", Height: 1080, Bitrate: "5000k", MaxRate: "5350k", BufSize: "7500k"},
	{Name: "720p", Height: 720, Bitrate: "3000k", MaxRate: "3210k", BufSize: "4500k"},
	{Name: "480p", Height: 480, Bitrate: "1500k", MaxRate: "1605k", BufSize: "2100k"},
	{Name: "360p", Height: 360, Bitrate: "800k", MaxRate: "856k", BufSize: "1200k"},
}

// bandwidths maps rendition names to the approximate BANDWIDTH value emitted
// in the master playlist. Players only use this as a switching hint.
var bandwidths = map[string]int{
	"1080p": 5000000,
	"720p":  3000000,
	"480p":  1500000,
	"360p":  800000,
}

const defaultBandwidth = 1000000

// BandwidthFor returns the playlist BANDWIDTH hint for a rendition name,
// falling back to a generic value for names outside the known set.
func BandwidthFor(name string) int {
	if bw, ok := bandwidths[name]; ok {
		return bw
	}
	return defaultBandwidth
}
