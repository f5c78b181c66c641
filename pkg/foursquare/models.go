package foursquare

// CheckinsEnvelope is the top-level response from the v2 check-ins endpoint,
// shaped {response: {checkins: {items: [...]}}}.
type CheckinsEnvelope struct {
	Response struct {
		Checkins struct {
			Count int       `json:"count"`
			Items []Checkin `json:"items"`
		} `json:"checkins"`
	} `json:"response"`
}

// SelfEnvelope is the top-level response from the v2 users/self endpoint
type SelfEnvelope struct {
	Response struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	} `json:"response"`
}

// Checkin represents a single check-in item from the v2 API
type Checkin struct {
	ID             string `json:"id"`
	CreatedAt      int64  `json:"createdAt"`
	Type           string `json:"type"`
	Shout          string `json:"shout"`
	Private        bool   `json:"private"`
	Visibility     string `json:"visibility"`
	IsMayor        bool   `json:"isMayor"`
	Like           bool   `json:"like"`
	TimeZoneOffset int    `json:"timeZoneOffset"`
	Venue          Venue  `json:"venue"`
	Comments       Count  `json:"comments"`
	Likes          Count  `json:"likes"`
	Photos         Count  `json:"photos"`
	Source         Source `json:"source"`
}

// Venue carries the place reference attached to a check-in
type Venue struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Count wraps the {count: n} objects the v2 API nests under checkins
type Count struct {
	Count int `json:"count"`
}

// Source identifies the application that created a check-in
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Place is the flat place object returned by the Places API
type Place struct {
	FsqPlaceID string     `json:"fsq_place_id"`
	Name       string     `json:"name"`
	Latitude   *float64   `json:"latitude"`
	Longitude  *float64   `json:"longitude"`
	Location   Location   `json:"location"`
	Categories []Category `json:"categories"`
	Website    string     `json:"website"`
	Tel        string     `json:"tel"`
	Email      string     `json:"email"`
	Price      *int       `json:"price"`
	Rating     *float64   `json:"rating"`
}

// Location holds the structured address fields of a place
type Location struct {
	Address          string `json:"address"`
	Locality         string `json:"locality"`
	Region           string `json:"region"`
	Postcode         string `json:"postcode"`
	Country          string `json:"country"`
	FormattedAddress string `json:"formatted_address"`
}

// Category is a Places API category entry
type Category struct {
	FsqCategoryID string `json:"fsq_category_id"`
	Name          string `json:"name"`
}

// PrimaryCategory returns the first category, if any
func (p *Place) PrimaryCategory() (Category, bool) {
	if len(p.Categories) == 0 {
		return Category{}, false
	}
	return p.Categories[0], true
}
