package models

import "time"

// External link platforms an attraction can have links for
const (
	PlatformYoutube   = "youtube"
	PlatformTwitter   = "twitter"
	PlatformItunes    = "itunes"
	PlatformLastfm    = "lastfm"
	PlatformFacebook  = "facebook"
	PlatformWiki      = "wiki"
	PlatformInstagram = "instagram"
	PlatformHomepage  = "homepage"
)

// LinkPlatforms lists all external link platforms in the order they are read from provider data
var LinkPlatforms = []string{
	PlatformYoutube,
	PlatformTwitter,
	PlatformItunes,
	PlatformLastfm,
	PlatformFacebook,
	PlatformWiki,
	PlatformInstagram,
	PlatformHomepage,
}

// Event is the canonical representation all provider events are mapped into
type Event struct {
	// Internal ID assigned by the store on creation - never changes afterwards
	ID string `json:"id" bson:"-"`
	// The ID the event has at its provider. Together with ProviderName this is the natural key
	ProviderEventID string `json:"providerEventId" bson:"providerEventId"`
	// Name of the provider the event was crawled from
	ProviderName string `json:"providerName" bson:"providerName"`
	// Name of the event
	Name string `json:"name" bson:"name"`
	// Type of the event as reported by the provider
	Type string `json:"type" bson:"type"`
	// URL of the event's page at the provider
	URL string `json:"url" bson:"url"`
	// Locale of the event's data
	Locale string `json:"locale" bson:"locale"`
	// A little description of the event
	Description string `json:"description" bson:"description"`
	// The sale window
	Sales Sales `json:"sales" bson:"sales"`
	// When does the event take place?
	Dates Dates `json:"dates" bson:"dates"`
	// The classification taxonomy
	Classifications []Classification `json:"classifications" bson:"classifications"`
	// The one promoting the event
	Promoter Promoter `json:"promoter" bson:"promoter"`
	// Ticket price ranges
	PriceRanges []PriceRange `json:"priceRanges" bson:"priceRanges"`
	// Where does the event take place?
	Venues []Venue `json:"venues" bson:"venues"`
	// Who is performing?
	Attractions []Attraction `json:"attractions" bson:"attractions"`
	// Images of the event
	Images []Image `json:"images" bson:"images"`
	// Whether the event is still active. Nil means unknown
	IsActive *bool `json:"isActive" bson:"isActive"`
	// Creation date of this entry
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	// Date of the last update of this entry
	ModifiedAt time.Time `json:"modifiedAt" bson:"modifiedAt"`
	// Date of the soft deletion of this entry
	DeletedAt *time.Time `json:"deletedAt,omitempty" bson:"deletedAt,omitempty"`
	// Date the entry became active again after being inactive
	ReactivatedAt *time.Time `json:"reactivatedAt,omitempty" bson:"reactivatedAt,omitempty"`
	// Soft deletion flag
	IsDeleted bool `json:"isDeleted" bson:"isDeleted"`
}

// Sales describes the window in which tickets are sold
type Sales struct {
	StartDateTime *time.Time `json:"startDateTime" bson:"startDateTime"`
	StartTBD      *bool      `json:"startTBD" bson:"startTBD"`
	EndDateTime   *time.Time `json:"endDateTime" bson:"endDateTime"`
}

// Dates describes when the event takes place
type Dates struct {
	LocalStartDate   string `json:"localStartDate" bson:"localStartDate"`
	Timezone         string `json:"timezone" bson:"timezone"`
	StatusCode       string `json:"statusCode" bson:"statusCode"`
	SpanMultipleDays *bool  `json:"spanMultipleDays" bson:"spanMultipleDays"`
}

// Taxon is one id/name pair inside the classification taxonomy
type Taxon struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

// Classification places an event inside a segment/genre/sub genre taxonomy
type Classification struct {
	Primary  *bool `json:"primary" bson:"primary"`
	Family   *bool `json:"family" bson:"family"`
	Segment  Taxon `json:"segment" bson:"segment"`
	Genre    Taxon `json:"genre" bson:"genre"`
	SubGenre Taxon `json:"subGenre" bson:"subGenre"`
}

// Promoter is the one promoting an event
type Promoter struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

// PriceRange is a range of ticket prices. Min and Max are nil when the provider did not report them, which is
// something else than a price of 0
type PriceRange struct {
	Type     string   `json:"type" bson:"type"`
	Currency string   `json:"currency" bson:"currency"`
	Min      *float64 `json:"min" bson:"min"`
	Max      *float64 `json:"max" bson:"max"`
}

// City is the city a venue is located in
type City struct {
	Name string `json:"name" bson:"name"`
}

// Country is the country a venue is located in
type Country struct {
	Name string `json:"name" bson:"name"`
	Code string `json:"code" bson:"code"`
}

// Address is the street address of a venue
type Address struct {
	Line string `json:"line" bson:"line"`
}

// Venue is a location an event takes place at
type Venue struct {
	ID       string  `json:"id" bson:"id"`
	Name     string  `json:"name" bson:"name"`
	Type     string  `json:"type" bson:"type"`
	URL      string  `json:"url" bson:"url"`
	Locale   string  `json:"locale" bson:"locale"`
	Timezone string  `json:"timezone" bson:"timezone"`
	City     City    `json:"city" bson:"city"`
	Country  Country `json:"country" bson:"country"`
	Address  Address `json:"address" bson:"address"`
}

// Link is a link to an external platform
type Link struct {
	URL string `json:"url" bson:"url"`
}

// Attraction is someone or something performing at an event
type Attraction struct {
	ID     string `json:"id" bson:"id"`
	Name   string `json:"name" bson:"name"`
	Type   string `json:"type" bson:"type"`
	Locale string `json:"locale" bson:"locale"`
	// Links to external platforms grouped by the platform name. See the Platform* constants
	ExternalLinks map[string][]Link `json:"externalLinks" bson:"externalLinks"`
}

// Image is an image of the event
type Image struct {
	URL    string `json:"url" bson:"url"`
	Ratio  string `json:"ratio" bson:"ratio"`
	Width  *int   `json:"width" bson:"width"`
	Height *int   `json:"height" bson:"height"`
}

// Bool returns a pointer to the given value - used for the tri-state flags of an event
func Bool(b bool) *bool {
	return &b
}

// Active reports whether the event is known to be active
func (e *Event) Active() bool {
	return e.IsActive != nil && *e.IsActive
}

// Inactive reports whether the event is known to be inactive
func (e *Event) Inactive() bool {
	return e.IsActive != nil && !*e.IsActive
}

// Expired reports whether the sale window of the event has ended before the given point in time
func (e *Event) Expired(now time.Time) bool {
	return e.Sales.EndDateTime != nil && e.Sales.EndDateTime.Before(now)
}

// ExpireIfPast sets the event inactive if its sale window has ended before the given point in time. It returns true
// if the event has been changed
func (e *Event) ExpireIfPast(now time.Time) bool {
	if !e.Expired(now) || e.Inactive() {
		return false
	}
	e.IsActive = Bool(false)
	return true
}
