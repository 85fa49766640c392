package models

// ImagePart is one raw image field of an upload together with the
// decoding instructions fixed by its field policy.
type ImagePart struct {
	Field       string
	Filename    string
	ContentType string
	BitDepth    BitDepth
	Data        []byte
}

// UploadRequest lives for the duration of one HTTP request.
type UploadRequest struct {
	ClientIP string
	Images   []ImagePart
	Metadata []byte
}
