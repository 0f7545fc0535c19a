package models

const (
	// AnonymousName is used for profiles that never set a name.
	AnonymousName = "Anonymous"

	Yes = "Yes"
	No  = "No"
)

// Profile is a user or business record, keyed by the id issued by the auth provider.
type Profile struct {
	ID         string
	IsBusiness bool
	Name       string
	Location   string
	Bio        string
	Story      string
	About      string
	Calendar   string
	Support    string
	Latitude   *float64
	Longitude  *float64
}

// HasGeoPoint reports whether the profile carries map coordinates.
func (p Profile) HasGeoPoint() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// UserProfile is the public view of a non-business profile.
type UserProfile struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Location      string `json:"location"`
	Bio           string `json:"bio"`
	IsCurrentUser bool   `json:"isCurrentUser"`
}

// BusinessProfile is the public view of a business profile.
type BusinessProfile struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Location      string   `json:"location"`
	Bio           string   `json:"bio"`
	Story         string   `json:"story"`
	About         string   `json:"about"`
	CalendarEmail string   `json:"calendarEmail"`
	Support       string   `json:"support"`
	Latitude      *float64 `json:"lat,omitempty"`
	Longitude     *float64 `json:"lng,omitempty"`
	IsCurrentUser bool     `json:"isCurrentUser"`
}

// LoginState describes the current session for the front end.
type LoginState struct {
	IsLoggedIn bool   `json:"isLoggedin"`
	URL        string `json:"url"`
	UserID     string `json:"userId,omitempty"`
	IsBusiness string `json:"isBusiness,omitempty"`
}

func (p Profile) UserView(currentUserID string) UserProfile {
	return UserProfile{
		ID:            p.ID,
		Name:          p.Name,
		Location:      p.Location,
		Bio:           p.Bio,
		IsCurrentUser: p.ID == currentUserID,
	}
}

func (p Profile) BusinessView(currentUserID string) BusinessProfile {
	return BusinessProfile{
		ID:            p.ID,
		Name:          p.Name,
		Location:      p.Location,
		Bio:           p.Bio,
		Story:         p.Story,
		About:         p.About,
		CalendarEmail: p.Calendar,
		Support:       p.Support,
		Latitude:      p.Latitude,
		Longitude:     p.Longitude,
		IsCurrentUser: currentUserID != "" && p.ID == currentUserID,
	}
}

// YesNo renders the business flag the way the front end expects it.
func YesNo(b bool) string {
	if b {
		return Yes
	}
	return No
}
