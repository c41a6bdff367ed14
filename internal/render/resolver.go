package render

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/inviteforge/inviteforge/internal/models"
	"github.com/inviteforge/inviteforge/pkg/logger"
)

// ImageFetcher retrieves a remote image URL and returns it as a data URI.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// keywordGroups are the canonical synonym groups for heuristic text matching.
// Groups are evaluated in this fixed order so resolution is deterministic.
var keywordGroups = [][]string{
	{"nome", "name"},
	{"evento", "event"},
	{"data", "date"},
	{"local", "location"},
}

// imageKeywords match an image element against a generic customization key.
var imageKeywords = map[string]struct{}{
	"imagem": {},
	"image":  {},
	"photo":  {},
	"foto":   {},
}

// Resolver applies a customization map to a template's element list. It never
// mutates its input: callers receive a fresh element slice of the same length,
// order and types.
//
// Per element, rules fire in a fixed order: placeholder substitution, then the
// positional key (texto_N / imagem_N, 1-indexed over the original list), then
// keyword-group matching. Wherever several customization keys could match, keys
// are scanned in sorted order, which removes the map-iteration nondeterminism.
type Resolver struct {
	fetcher ImageFetcher
	log     *zap.Logger
}

// NewResolver builds a Resolver. A nil fetcher disables remote URL resolution;
// URL-valued image customizations are then left unresolved.
func NewResolver(fetcher ImageFetcher) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		log:     logger.WithModule("resolver"),
	}
}

// Resolve personalizes the element list with the sanitized customization map.
func (r *Resolver) Resolve(ctx context.Context, elements []models.Element, customizations map[string]Value) []models.Element {
	if ctx == nil {
		ctx = context.Background()
	}

	keys := sortedKeys(customizations)

	resolved := make([]models.Element, len(elements))
	for i, el := range elements {
		cpy := el.Clone()
		switch el.Type {
		case models.ElementText:
			r.resolveText(&cpy, i+1, customizations, keys)
		case models.ElementImage:
			r.resolveImage(ctx, &cpy, i+1, customizations, keys)
		}
		resolved[i] = cpy
	}

	return resolved
}

// resolveText applies the three text rules. position is 1-indexed over the
// original template element list.
func (r *Resolver) resolveText(el *models.Element, position int, customizations map[string]Value, keys []string) {
	original := el.Content

	// Rule 1: literal {key} placeholder substitution, all keys, all occurrences.
	for _, key := range keys {
		token := "{" + key + "}"
		if strings.Contains(el.Content, token) {
			el.Content = strings.ReplaceAll(el.Content, token, customizations[key].String())
		}
	}
	if el.Content != original {
		return
	}

	// Rule 2: positional texto_N replaces the whole content.
	if v, ok := customizations[fmt.Sprintf("texto_%d", position)]; ok {
		el.Content = v.String()
		return
	}

	// Rule 3: keyword groups. A key belonging to a group matches when the
	// element's current content mentions any synonym of that same group; the
	// first firing group wins and replaces the content wholesale.
	contentLower := strings.ToLower(el.Content)
	for _, group := range keywordGroups {
		for _, key := range keys {
			if !containsFold(group, key) {
				continue
			}
			if !containsAny(contentLower, group) {
				continue
			}
			el.Content = customizations[key].String()
			return
		}
	}
}

// resolveImage applies the image matching rules. A matched data URI is used
// verbatim; a matched HTTP(S) URL goes through the fetcher, and fetch failure
// leaves the stored src untouched rather than failing the render.
func (r *Resolver) resolveImage(ctx context.Context, el *models.Element, position int, customizations map[string]Value, keys []string) {
	value, ok := customizations[fmt.Sprintf("imagem_%d", position)]
	if !ok {
		for _, key := range keys {
			if _, match := imageKeywords[strings.ToLower(key)]; match {
				value = customizations[key]
				ok = true
				break
			}
		}
	}
	if !ok {
		return
	}

	src := value.String()
	switch {
	case strings.HasPrefix(src, "data:image"):
		el.Src = &src
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		if r.fetcher == nil {
			return
		}
		dataURI, err := r.fetcher.Fetch(ctx, src)
		if err != nil {
			r.log.Warn("remote image fetch failed, leaving element unresolved",
				zap.String("url", src),
				zap.Error(err),
			)
			return
		}
		el.Src = &dataURI
	}
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func containsFold(group []string, key string) bool {
	for _, synonym := range group {
		if strings.EqualFold(synonym, key) {
			return true
		}
	}
	return false
}

func containsAny(contentLower string, group []string) bool {
	for _, synonym := range group {
		if strings.Contains(contentLower, synonym) {
			return true
		}
	}
	return false
}
