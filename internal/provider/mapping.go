package provider

import (
	"strings"
	"time"

	"github.com/derWhity/eventlink/internal/extract"
	"github.com/derWhity/eventlink/internal/models"
)

// Helpers turning optional values into the nil-able fields of an event

func timeAt(doc interface{}, path string) *time.Time {
	if t, ok := extract.Time(doc, path); ok {
		return &t
	}
	return nil
}

func boolAt(doc interface{}, path string) *bool {
	if b, ok := extract.Bool(doc, path); ok {
		return &b
	}
	return nil
}

func floatAt(doc interface{}, path string) *float64 {
	if f, ok := extract.Float(doc, path); ok {
		return &f
	}
	return nil
}

func intAt(doc interface{}, path string) *int {
	if i, ok := extract.Int(doc, path); ok {
		return &i
	}
	return nil
}

func taxonAt(doc interface{}, path string) models.Taxon {
	return models.Taxon{
		ID:   extract.String(doc, path+".id"),
		Name: extract.String(doc, path+".name"),
	}
}

// externalLinksAt collects the links of all known platforms below the given path. Platforms without links are left out
func externalLinksAt(doc interface{}, path string) map[string][]models.Link {
	ret := make(map[string][]models.Link)
	for _, platform := range models.LinkPlatforms {
		items := extract.Items(doc, path+"."+platform)
		if len(items) == 0 {
			continue
		}
		links := make([]models.Link, 0, len(items))
		for _, item := range items {
			links = append(links, models.Link{URL: extract.String(item, "url")})
		}
		ret[platform] = links
	}
	return ret
}

// absoluteURL adds the http scheme to protocol-relative URLs
func absoluteURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "http:" + u
	}
	return u
}
