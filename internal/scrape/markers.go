package scrape

// Markers of the ratings listing template. They are the implicit contract with the
// site; when it changes its markup these are the values to revisit.
const (
	// NotFoundMarker appears verbatim in the page served for unknown users and
	// for page indexes past the end of a user's history
	NotFoundMarker = "<h1>Not Found</h1>"

	// ContainerMarker is the class shared by every record container
	ContainerMarker = "mb-4"

	// ChromeContainerSkip is the number of leading ContainerMarker matches that are
	// page chrome (filters, headers) rather than rated movies
	ChromeContainerSkip = 2

	TitleMarker     = "mc-title"
	TitleTextMarker = "d-md-none"
	YearMarker      = "mc-year"
	DirectorsMarker = "credits"
	DirectorTag     = "a"
	RatingMarker    = "fa-user-rat-box"
)

// Field names reported in structure change errors
const (
	FieldMovies   = "Movies"
	FieldTitle    = "Title"
	FieldYear     = "Year"
	FieldDirector = "Director"
	FieldRating   = "Rating"
)

func classSelector(marker string) string {
	return "." + marker
}
