package cloudinary

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"gymtrack/internal/logging"
	"gymtrack/internal/services"
)

// Listing modes reported by FetchAll.
const (
	ModeSearch = "search"
	ModePrefix = "prefix"
)

// Lister is the subset of Client the fetcher needs.
type Lister interface {
	Search(ctx context.Context, expression, cursor string) (Page, error)
	ListByPrefix(ctx context.Context, prefix, cursor string) (Page, error)
}

// Listing is the full result of a fetch run.
type Listing struct {
	Resources []Resource
	Mode      string
	Folders   []string
}

// ErrNoResources marks a fetch that completed without finding any images.
var ErrNoResources = errors.New("no cloudinary resources found")

// FolderCandidates returns the folders to query: the configured folder, its
// last path segment when nested, then the aliases. Blank entries and
// duplicates are dropped while keeping first-seen order.
func FolderCandidates(folder string, aliases []string) []string {
	candidates := make([]string, 0, 2+len(aliases))
	if folder != "" {
		candidates = append(candidates, folder)
	}
	if strings.Contains(folder, "/") {
		parts := strings.FieldsFunc(folder, func(r rune) bool { return r == '/' })
		if len(parts) > 0 {
			candidates = append(candidates, parts[len(parts)-1])
		}
	}
	for _, alias := range aliases {
		if alias = strings.TrimSpace(alias); alias != "" {
			candidates = append(candidates, alias)
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	out := candidates[:0]
	for _, candidate := range candidates {
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}
	return out
}

// SearchExpression builds a search expression matching any of folders by
// either asset folder or legacy folder path. It returns "" for no folders.
func SearchExpression(folders []string) string {
	clauses := make([]string, 0, len(folders))
	for _, folder := range folders {
		clauses = append(clauses, `(asset_folder:"`+folder+`" OR folder:"`+folder+`")`)
	}
	return strings.Join(clauses, " OR ")
}

type fetchState int

const (
	stateTryExpressionSearch fetchState = iota
	stateTryPrefixListing
	stateExhausted
)

// Fetcher retrieves every image under a set of folder candidates, preferring
// a single search expression and falling back to per-folder prefix listings.
type Fetcher struct {
	lister Lister
	logger *slog.Logger
}

// NewFetcher wraps lister.
func NewFetcher(lister Lister, logger *slog.Logger) *Fetcher {
	return &Fetcher{lister: lister, logger: logging.NewComponentLogger(logger, "cloudinary-fetch")}
}

// FetchAll walks the search and prefix strategies until one yields
// resources. Search failures are logged and trigger the prefix fallback;
// prefix failures abort the fetch. Resources are deduplicated by public id.
func (f *Fetcher) FetchAll(ctx context.Context, folders []string) (Listing, error) {
	if f == nil || f.lister == nil {
		return Listing{}, errors.New("cloudinary: fetcher has no lister")
	}
	listing := Listing{Folders: append([]string(nil), folders...), Mode: ModeSearch}
	var resources []Resource

	state := stateTryExpressionSearch
	for state != stateExhausted {
		switch state {
		case stateTryExpressionSearch:
			state = stateTryPrefixListing
			expression := SearchExpression(folders)
			if expression == "" {
				continue
			}
			found, err := f.searchAll(ctx, expression)
			if err != nil {
				if ctx.Err() != nil {
					return Listing{}, ctx.Err()
				}
				f.logger.Warn("cloudinary search failed; falling back to prefix listing",
					logging.Error(err),
				)
				continue
			}
			if len(found) > 0 {
				resources = found
				state = stateExhausted
			}
		case stateTryPrefixListing:
			listing.Mode = ModePrefix
			for _, folder := range folders {
				found, err := f.prefixAll(ctx, folder)
				if err != nil {
					if ctx.Err() != nil {
						return Listing{}, ctx.Err()
					}
					return Listing{}, services.Wrap(services.ErrExternalService, "cloudinary", "prefix listing "+folder,
						"Candidates: "+strings.Join(folders, ", "), err)
				}
				resources = append(resources, found...)
			}
			state = stateExhausted
		}
	}

	listing.Resources = dedupe(resources)
	if len(listing.Resources) == 0 {
		return listing, services.Wrap(ErrNoResources, "", "",
			"Check CLOUDINARY_FOLDER or set CLOUDINARY_FOLDER_ALIASES. Candidates: "+strings.Join(folders, ", "), nil)
	}
	f.logger.Info("cloudinary listing complete",
		logging.String("mode", listing.Mode),
		logging.Int("resources", len(listing.Resources)),
		logging.Strings("folders", folders),
	)
	return listing, nil
}

func (f *Fetcher) searchAll(ctx context.Context, expression string) ([]Resource, error) {
	var out []Resource
	cursor := ""
	for {
		page, err := f.lister.Search(ctx, expression, cursor)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Resources...)
		if page.NextCursor == "" {
			return out, nil
		}
		cursor = page.NextCursor
	}
}

func (f *Fetcher) prefixAll(ctx context.Context, prefix string) ([]Resource, error) {
	var out []Resource
	cursor := ""
	for {
		page, err := f.lister.ListByPrefix(ctx, prefix, cursor)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Resources...)
		if page.NextCursor == "" {
			return out, nil
		}
		cursor = page.NextCursor
	}
}

func dedupe(resources []Resource) []Resource {
	seen := make(map[string]struct{}, len(resources))
	out := make([]Resource, 0, len(resources))
	for _, resource := range resources {
		if resource.PublicID == "" {
			continue
		}
		if _, ok := seen[resource.PublicID]; ok {
			continue
		}
		seen[resource.PublicID] = struct{}{}
		out = append(out, resource)
	}
	return out
}
