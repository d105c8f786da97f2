package media

// ArtworkCategory names a slot in the artwork plan.
type ArtworkCategory string

const (
	ArtworkPoster   ArtworkCategory = "poster"
	ArtworkFanart   ArtworkCategory = "fanart"
	ArtworkBanner   ArtworkCategory = "banner"
	ArtworkBackdrop ArtworkCategory = "backdrop"
	ArtworkLogo     ArtworkCategory = "logo"
	ArtworkStill    ArtworkCategory = "still"
	ArtworkActor    ArtworkCategory = "actor"
)

// ArtworkCategories lists categories in output order.
var ArtworkCategories = []ArtworkCategory{
	ArtworkPoster,
	ArtworkFanart,
	ArtworkBanner,
	ArtworkBackdrop,
	ArtworkLogo,
	ArtworkStill,
	ArtworkActor,
}

// CategoryOrder returns the sort rank of category; unknown categories sort last.
func CategoryOrder(category ArtworkCategory) int {
	for i, c := range ArtworkCategories {
		if c == category {
			return i
		}
	}
	return len(ArtworkCategories)
}

// ArtworkStatus tracks an asset through fetch and write.
type ArtworkStatus string

const (
	ArtworkPlanned ArtworkStatus = "planned"
	ArtworkFetched ArtworkStatus = "fetched"
	ArtworkSkipped ArtworkStatus = "skipped"
	ArtworkFailed  ArtworkStatus = "failed"
)

// ArtworkAsset is one planned output image.
type ArtworkAsset struct {
	Category  ArtworkCategory
	SourceURL string
	// Fallbacks are tried in order when SourceURL fails.
	Fallbacks  []string
	TargetPath string
	Locale     string
	Sequence   int
	Status     ArtworkStatus
	Err        string
	// Data holds downloaded bytes until the writer commits them.
	Data        []byte
	ContentType string
}

// URLs returns the source URL followed by its fallbacks.
func (a ArtworkAsset) URLs() []string {
	out := make([]string, 0, 1+len(a.Fallbacks))
	if a.SourceURL != "" {
		out = append(out, a.SourceURL)
	}
	for _, u := range a.Fallbacks {
		if u != "" && u != a.SourceURL {
			out = append(out, u)
		}
	}
	return out
}
