package model

// Profile carries the non-experience parts of a resume, taken verbatim from
// the user's info, education and certification records.
type Profile struct {
	Name      string      `json:"name"`
	Email     string      `json:"email,omitempty"`
	Phone     string      `json:"phone,omitempty"`
	Address   string      `json:"address,omitempty"`
	Websites  []Link      `json:"websites,omitempty"`
	Education []Education `json:"education,omitempty"`
}

// Link is a labelled URL from the header.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Education is an education or certification entry.
type Education struct {
	Kind        string `json:"kind"`
	Institution string `json:"institution"`
	Title       string `json:"title"`
	Location    string `json:"location,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Description string `json:"description,omitempty"`
}
