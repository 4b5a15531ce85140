package models

// AssetKind is the media type of a downloaded asset
type AssetKind string

const (
	AssetVideo AssetKind = "video"
	AssetImage AssetKind = "image"
)

// LocalAsset is a remote file materialized on local disk for one composition.
// The invocation that created it owns it and deletes it before returning.
type LocalAsset struct {
	SourceURL string    `json:"source_url"`
	LocalPath string    `json:"local_path"`
	Kind      AssetKind `json:"kind"`
	Bytes     int64     `json:"bytes"`
}

// AsBackground converts a fetched asset into the compositor background variant
func (a LocalAsset) AsBackground(kind BackgroundKind) Background {
	if kind == "" {
		if a.Kind == AssetVideo {
			kind = BackgroundVideo
		} else {
			kind = BackgroundImage
		}
	}
	if kind == BackgroundVideo {
		return ScrollingVideo(a.LocalPath)
	}
	return StaticImage(a.LocalPath)
}
