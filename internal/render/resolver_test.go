package render

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inviteforge/inviteforge/internal/models"
)

type stubFetcher struct {
	uri   string
	err   error
	calls []string
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.calls = append(f.calls, url)
	if f.err != nil {
		return "", f.err
	}
	return f.uri, nil
}

func textElement(content string) models.Element {
	return models.Element{Type: models.ElementText, Content: content, FontSize: 16}
}

func imageElement() models.Element {
	return models.Element{Type: models.ElementImage, Width: 50, Height: 50}
}

func TestResolvePlaceholderSubstitution(t *testing.T) {
	r := NewResolver(nil)

	elements := []models.Element{textElement("Hello {nome}, see you at {local}!")}
	out := r.Resolve(context.Background(), elements, map[string]Value{
		"nome":  StringValue("Ana"),
		"local": StringValue("Lisbon"),
	})

	require.Equal(t, "Hello Ana, see you at Lisbon!", out[0].Content)
}

func TestResolvePlaceholderWinsOverPositional(t *testing.T) {
	r := NewResolver(nil)

	elements := []models.Element{textElement("Dear {nome}")}
	out := r.Resolve(context.Background(), elements, map[string]Value{
		"nome":    StringValue("Ana"),
		"texto_1": StringValue("should not apply"),
	})

	require.Equal(t, "Dear Ana", out[0].Content)
}

func TestResolvePositionalCountsAllElements(t *testing.T) {
	r := NewResolver(nil)

	// The text element sits at position 2 of the template, after an image.
	elements := []models.Element{imageElement(), textElement("original")}
	out := r.Resolve(context.Background(), elements, map[string]Value{
		"texto_1": StringValue("wrong slot"),
		"texto_2": StringValue("replaced"),
	})

	require.Equal(t, "replaced", out[1].Content)
}

func TestResolveKeywordFullReplace(t *testing.T) {
	r := NewResolver(nil)

	elements := []models.Element{textElement("Nome do convidado")}
	out := r.Resolve(context.Background(), elements, map[string]Value{
		"name": StringValue("Bob"),
	})

	require.Equal(t, "Bob", out[0].Content)
}

func TestResolveKeywordGroupOrderIsFixed(t *testing.T) {
	r := NewResolver(nil)

	// Content mentions synonyms of both the event and date groups; the event
	// group is evaluated first.
	elements := []models.Element{textElement("evento e data")}
	out := r.Resolve(context.Background(), elements, map[string]Value{
		"date":  StringValue("2026-01-01"),
		"event": StringValue("Launch Party"),
	})

	require.Equal(t, "Launch Party", out[0].Content)
}

func TestResolveNumberValueSubstitution(t *testing.T) {
	r := NewResolver(nil)

	elements := []models.Element{textElement("Table {mesa}")}
	out := r.Resolve(context.Background(), elements, map[string]Value{
		"mesa": NumberValue(12),
	})

	require.Equal(t, "Table 12", out[0].Content)
}

func TestResolveDoesNotMutateInput(t *testing.T) {
	r := NewResolver(nil)

	src := "data:image/png;base64,aaaa"
	elements := []models.Element{
		{Type: models.ElementText, Content: "Hello {nome}"},
		{Type: models.ElementImage, Src: &src},
	}

	_ = r.Resolve(context.Background(), elements, map[string]Value{
		"nome":     StringValue("Ana"),
		"imagem_2": StringValue("data:image/png;base64,bbbb"),
	})

	require.Equal(t, "Hello {nome}", elements[0].Content)
	require.Equal(t, "data:image/png;base64,aaaa", *elements[1].Src)
}

func TestResolvePreservesLengthOrderAndTypes(t *testing.T) {
	r := NewResolver(nil)

	elements := []models.Element{
		textElement("a"),
		imageElement(),
		textElement("b"),
	}
	out := r.Resolve(context.Background(), elements, nil)

	require.Len(t, out, len(elements))
	for i := range elements {
		require.Equal(t, elements[i].Type, out[i].Type)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	r := NewResolver(nil)

	customizations := map[string]Value{
		"nome":    StringValue("Ana"),
		"texto_2": StringValue("Second"),
	}
	elements := []models.Element{
		textElement("Hi {nome}"),
		textElement("anything"),
	}

	once := r.Resolve(context.Background(), elements, customizations)
	twice := r.Resolve(context.Background(), once, customizations)

	require.Equal(t, once, twice)
}

func TestResolveImageDataURIUsedVerbatim(t *testing.T) {
	fetcher := &stubFetcher{uri: "data:image/png;base64,fetched"}
	r := NewResolver(fetcher)

	elements := []models.Element{imageElement()}
	out := r.Resolve(context.Background(), elements, map[string]Value{
		"imagem_1": StringValue("data:image/png;base64,inline"),
	})

	require.NotNil(t, out[0].Src)
	require.Equal(t, "data:image/png;base64,inline", *out[0].Src)
	require.Empty(t, fetcher.calls)
}

func TestResolveImageRemoteURLFetched(t *testing.T) {
	fetcher := &stubFetcher{uri: "data:image/jpeg;base64,fetched"}
	r := NewResolver(fetcher)

	elements := []models.Element{imageElement()}
	out := r.Resolve(context.Background(), elements, map[string]Value{
		"image": StringValue("https://example.com/pic.jpg"),
	})

	require.Equal(t, []string{"https://example.com/pic.jpg"}, fetcher.calls)
	require.NotNil(t, out[0].Src)
	require.Equal(t, "data:image/jpeg;base64,fetched", *out[0].Src)
}

func TestResolveImageFetchFailureLeavesElementUntouched(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("boom")}
	r := NewResolver(fetcher)

	elements := []models.Element{imageElement()}
	out := r.Resolve(context.Background(), elements, map[string]Value{
		"photo": StringValue("https://example.com/down.png"),
	})

	require.Nil(t, out[0].Src)
}

func TestResolveImagePositionalBeatsKeyword(t *testing.T) {
	r := NewResolver(nil)

	elements := []models.Element{imageElement()}
	out := r.Resolve(context.Background(), elements, map[string]Value{
		"imagem_1": StringValue("data:image/png;base64,positional"),
		"image":    StringValue("data:image/png;base64,keyword"),
	})

	require.Equal(t, "data:image/png;base64,positional", *out[0].Src)
}

func TestResolveNilFetcherSkipsRemoteURLs(t *testing.T) {
	r := NewResolver(nil)

	elements := []models.Element{imageElement()}
	out := r.Resolve(context.Background(), elements, map[string]Value{
		"image": StringValue("https://example.com/pic.png"),
	})

	require.Nil(t, out[0].Src)
}
