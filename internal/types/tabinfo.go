package types

// TabInfo holds metadata about a browser tab for routing captured data.
// Capture handlers use it to decide which writer receives a record.
type TabInfo struct {
	TargetID string
	URL      string
	Segment  string // Filesystem-safe segment derived from the URL host, e.g. "signup_cloud_oracle_com"
	ShortID  string // Short ID from the target ID, e.g. "B0D5A8E8"
}

// TabInfoProvider is an interface for looking up tab information by ID.
// This breaks the import cycle between the capture and driver packages.
type TabInfoProvider interface {
	GetByStringID(tabID string) (*TabInfo, bool)
}
