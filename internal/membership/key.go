package membership

import (
	"strconv"

	"github.com/desertthunder/moviemate/internal/models"
	"github.com/desertthunder/moviemate/internal/shared"
)

// Key is a derived identity string.
type Key string

// CatalogKey is the primary key of a catalog entry.
func CatalogKey(c models.CatalogItem) Key {
	return adminKey(c.ID)
}

// CatalogFallbackKey ignores the catalog id and keys on title and platform only.
func CatalogFallbackKey(c models.CatalogItem) Key {
	return FallbackKey(c.Title, c.Platform)
}

// ItemKey keys a collection record on its catalog origin when it carries one, and on
// title and platform otherwise.
func ItemKey(item models.CollectionItem) Key {
	if ref, ok := item.CatalogRef(); ok {
		return adminKey(ref)
	}
	return FallbackKey(item.Title, item.Platform)
}

// FallbackKey builds "title:<t>||platform:<p>" from trimmed, lowercased parts.
func FallbackKey(title, platform string) Key {
	return Key("title:" + shared.NormalizeKeyPart(title) + "||platform:" + shared.NormalizeKeyPart(platform))
}

func adminKey(id int64) Key {
	return Key("admin:" + strconv.FormatInt(id, 10))
}
