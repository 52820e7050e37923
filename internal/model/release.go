package model

import "fmt"

// DesktopRelease is one entry of the desktop auto-update feed.
type DesktopRelease struct {
	Version     string   `json:"version"`
	BuildNumber int64    `json:"build_number"`
	DownloadURL string   `json:"download_url"`
	EdSignature string   `json:"ed_signature"`
	PublishedAt string   `json:"published_at"`
	Changelog   []string `json:"changelog"`
	IsLive      bool     `json:"is_live"`
	IsCritical  bool     `json:"is_critical"`
}

// ReleaseID is the document ID of a release, for example "v1.2.0+120".
func (r *DesktopRelease) ReleaseID() string {
	return fmt.Sprintf("v%s+%d", r.Version, r.BuildNumber)
}
