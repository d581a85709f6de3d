package document

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDocument() Document {
	return New(map[string]any{
		"brand":        map[string]any{"logo": "", "color": "#000000"},
		"organization": map[string]any{"name": "Acme", "industry": "retail"},
		"candidates":   []string{},
	})
}

func TestNew_FixedSections(t *testing.T) {
	doc := newTestDocument()

	assert.Equal(t, []string{"brand", "candidates", "organization"}, doc.Names())
	assert.True(t, doc.Has("brand"))
	assert.False(t, doc.Has("users"))
	assert.NotZero(t, doc.Version())
}

func TestNew_ClonesDefaults(t *testing.T) {
	defaults := map[string]any{"job": map[string]any{"title": "Engineer"}}
	doc := New(defaults)

	defaults["job"].(map[string]any)["title"] = "changed"

	assert.Equal(t, "Engineer", doc.String("job", "title"))
}

func TestUpdateSection_ShallowMerge(t *testing.T) {
	doc := newTestDocument()

	updated, err := doc.UpdateSection("brand", map[string]any{"logo": "logo.png"})
	require.NoError(t, err)

	brand := updated.Object("brand")
	assert.Equal(t, "logo.png", brand["logo"])
	assert.Equal(t, "#000000", brand["color"], "unspecified fields are kept")
}

func TestUpdateSection_IsolatesOtherSections(t *testing.T) {
	doc := newTestDocument()
	before, _ := doc.Section("organization")

	updated, err := doc.UpdateSection("brand", map[string]any{"logo": "X"})
	require.NoError(t, err)

	after, _ := updated.Section("organization")
	assert.Equal(t, before, after)
}

func TestUpdateSection_DoesNotMutateReceiver(t *testing.T) {
	doc := newTestDocument()

	updated, err := doc.UpdateSection("brand", map[string]any{"logo": "X"})
	require.NoError(t, err)

	assert.Equal(t, "", doc.String("brand", "logo"))
	assert.Equal(t, "X", updated.String("brand", "logo"))
	assert.NotEqual(t, doc.Version(), updated.Version())
}

func TestUpdateSection_CopiesListValues(t *testing.T) {
	doc := New(map[string]any{
		"items": []any{"a"},
		"job":   map[string]any{"questions": []any{"Why?"}},
	})

	list := []any{"x"}
	next, err := doc.UpdateSection("items", list)
	require.NoError(t, err)
	list[0] = "changed"

	questions := []any{"How?"}
	next, err = next.UpdateSection("job", map[string]any{"questions": questions})
	require.NoError(t, err)
	questions[0] = "changed"

	v, _ := next.Section("items")
	assert.Equal(t, []any{"x"}, v)
	assert.Equal(t, []string{"How?"}, next.Strings("job", "questions"))
	assert.Equal(t, []string{"Why?"}, doc.Strings("job", "questions"))
}

func TestVersion_UniquePerValue(t *testing.T) {
	doc := newTestDocument()

	left, err := doc.UpdateSection("brand", map[string]any{"logo": "left"})
	require.NoError(t, err)
	right, err := doc.UpdateSection("brand", map[string]any{"logo": "right"})
	require.NoError(t, err)

	assert.NotEqual(t, left.Version(), right.Version())
	assert.NotEqual(t, doc.Version(), left.Version())
	assert.NotEqual(t, newTestDocument().Version(), doc.Version())
}

func TestUpdateSection_ReplacesNonObjectValues(t *testing.T) {
	doc := newTestDocument()

	updated, err := doc.UpdateSection("candidates", []string{"a@b.com"})
	require.NoError(t, err)

	v, ok := updated.Section("candidates")
	require.True(t, ok)
	assert.Equal(t, []string{"a@b.com"}, v)
}

func TestUpdateSection_UnknownSection(t *testing.T) {
	doc := newTestDocument()

	_, err := doc.UpdateSection("users", map[string]any{"count": 3})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownSection))
	assert.Contains(t, err.Error(), "users")
	assert.Equal(t, []string{"brand", "candidates", "organization"}, doc.Names())
}

func TestSection_ReturnsReadOnlyCopy(t *testing.T) {
	doc := newTestDocument()

	v, ok := doc.Section("brand")
	require.True(t, ok)
	v.(map[string]any)["logo"] = "tampered"

	assert.Equal(t, "", doc.String("brand", "logo"))
}

func TestSection_ListsAreCopies(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		tamper func(v any)
	}{
		{"any slice", []any{"a"}, func(v any) { v.([]any)[0] = "tampered" }},
		{"string slice", []string{"a"}, func(v any) { v.([]string)[0] = "tampered" }},
		{"nested in object", map[string]any{"tags": []any{"a"}}, func(v any) {
			v.(map[string]any)["tags"].([]any)[0] = "tampered"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := New(map[string]any{"items": tt.value})

			v, _ := doc.Section("items")
			tt.tamper(v)
			snap := doc.Snapshot()
			tt.tamper(snap["items"])

			got, _ := doc.Section("items")
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestFieldHelpers(t *testing.T) {
	doc := New(map[string]any{
		"job": map[string]any{
			"title":     "  Engineer ",
			"remote":    true,
			"questions": []any{"Why?", 42, "How?"},
		},
		"list": []string{"x"},
	})

	assert.Equal(t, "Engineer", doc.String("job", "title"))
	assert.True(t, doc.Bool("job", "remote"))
	assert.False(t, doc.Bool("job", "title"))
	assert.Equal(t, []string{"Why?", "How?"}, doc.Strings("job", "questions"))
	assert.Equal(t, "", doc.String("list", "x"))
	assert.Nil(t, doc.Object("list"))

	_, ok := doc.Field("missing", "x")
	assert.False(t, ok)
}

func TestAsStrings(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"string slice", []string{"a", "b"}, []string{"a", "b"}},
		{"any slice", []any{"a", 1, "b"}, []string{"a", "b"}},
		{"scalar", "a", nil},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AsStrings(tt.in))
		})
	}
}

func TestSnapshot(t *testing.T) {
	doc := newTestDocument()

	snap := doc.Snapshot()
	snap["brand"].(map[string]any)["logo"] = "tampered"

	assert.Len(t, snap, 3)
	assert.Equal(t, "", doc.String("brand", "logo"))
}
