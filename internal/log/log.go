// Package log contains the log field names used throughout EventLink and the hook that persists log entries
package log

const (
	// FldFile is the name of the log field for storing file name information
	FldFile = "file"
	// FldPath is the name of the log field for storing path name information
	FldPath = "path"
	// FldTransport is the name of the log field for storing a transport name
	FldTransport = "transport"
	// FldVersion is the version number of the application
	FldVersion = "ver"
	// FldIP is the IP address used in the log entry
	FldIP = "ip"
	// FldID is the store-assigned ID of an event used in the log entry
	FldID = "id"
	// FldSearch is a search term used in a search
	FldSearch = "search"
	// FldOffset is the requested offset value in a search
	FldOffset = "offset"
	// FldLimit is the requested result limit in a search
	FldLimit = "limit"
	// FldProvider is the name of the event provider a log entry is about
	FldProvider = "provider"
	// FldProviderEventID is the ID an event has at its provider
	FldProviderEventID = "providerEventId"
	// FldPage is the page number requested from a paginated provider
	FldPage = "page"
	// FldTotalPages is the number of pages a paginated provider reported
	FldTotalPages = "totalPages"
	// FldInterval is the crawl interval of a provider
	FldInterval = "interval"
	// FldCountryCodes is the country filter applied to a crawl
	FldCountryCodes = "countryCodes"
	// FldCreated is the number of events created during a crawl pass
	FldCreated = "created"
	// FldUpdated is the number of events updated during a crawl pass
	FldUpdated = "updated"
	// FldFailed is the number of events that could not be stored during a crawl pass
	FldFailed = "failed"
	// FldRecords is the number of raw records handled
	FldRecords = "records"
	// FldOrigin names the component that wrote the log entry
	FldOrigin = "origin"
	// FldCategory selects the log category an entry is persisted to. See the Category* constants
	FldCategory = "category"
	// FldDriver is the storage driver in use
	FldDriver = "driver"
)

const (
	// CategorySystem is the default category every log entry belongs to
	CategorySystem = "system"
	// CategoryEvent is used for entries about crawling and storing events
	CategoryEvent = "event"
	// CategoryStatistics is used for the per-pass statistics lines
	CategoryStatistics = "statistics"
)
