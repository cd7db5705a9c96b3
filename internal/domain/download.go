package domain

// DownloadCategory is one server-side data set pulled after the upload
// pass. The downloader iterates a fixed list in rank order.
type DownloadCategory struct {
	Name string
	Rank PriorityRank
}

// DownloadCategories is the fixed pull order: clinical guidelines and
// medication references before general reference data.
var DownloadCategories = []DownloadCategory{
	{Name: "guidelines", Rank: PriorityHigh},
	{Name: "medications", Rank: PriorityHigh},
	{Name: "reference", Rank: PriorityMedium},
}
