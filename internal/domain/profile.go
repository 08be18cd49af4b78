package domain

// UserSettings holds the per-user preferences the journal UI needs.
type UserSettings struct {
	Locale            string `json:"locale"`
	Theme             string `json:"theme"`
	Timezone          string `json:"timezone"`
	DefaultDiscipline string `json:"defaultDiscipline"`
}

// UserProfile is the resolved application user.
// Values handed out by the profile cache are shared and must be treated as read-only.
type UserProfile struct {
	UserID      string       `json:"id"`
	DisplayName string       `json:"displayName"`
	Email       string       `json:"email"`
	ImageURL    string       `json:"imageUrl"`
	Settings    UserSettings `json:"settings"`
}

// ProfileUpdate carries the editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	DisplayName *string       `json:"displayName,omitempty"`
	ImageURL    *string       `json:"imageUrl,omitempty"`
	Settings    *UserSettings `json:"settings,omitempty"`
}
