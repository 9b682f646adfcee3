package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitleFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "short", content: "Preciso da segunda via", want: "Preciso da segunda via"},
		{name: "exactly fifty", content: strings.Repeat("a", 50), want: strings.Repeat("a", 50)},
		{name: "fifty one", content: strings.Repeat("b", 51), want: strings.Repeat("b", 50) + "..."},
		{name: "multibyte", content: strings.Repeat("ç", 60), want: strings.Repeat("ç", 50) + "..."},
		{name: "empty", content: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TitleFromContent(tt.content))
		})
	}
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" Finance ")
	require.NoError(t, err)
	assert.Equal(t, CategoryFinance, c)

	_, err = ParseCategory("marketing")
	assert.Error(t, err)
}

func TestCategoriesOrder(t *testing.T) {
	assert.Equal(t, []Category{CategorySupport, CategoryFinance, CategorySales, CategoryInfra}, Categories)
}

func TestChatCloneDoesNotAlias(t *testing.T) {
	c := Chat{ID: "c1", Messages: []Message{{ID: "m1", Content: "oi"}}}
	clone := c.Clone()
	clone.Messages[0].Content = "changed"
	clone.Messages = append(clone.Messages, Message{ID: "m2"})

	assert.Equal(t, "oi", c.Messages[0].Content)
	assert.Len(t, c.Messages, 1)
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAssistant.Valid())
	assert.False(t, Role("system").Valid())
}
