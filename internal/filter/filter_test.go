package filter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-realtime/internal/models"
)

func TestParse(t *testing.T) {
	c, err := Parse(url.Values{"title": {"Test"}, "is_completed": {"True"}})
	require.NoError(t, err)
	assert.Equal(t, "Test", c.Title)
	require.NotNil(t, c.IsCompleted)
	assert.True(t, *c.IsCompleted)
	assert.False(t, c.IsZero())

	c, err = Parse(url.Values{})
	require.NoError(t, err)
	assert.True(t, c.IsZero())
}

func TestParseRejectsBadBoolean(t *testing.T) {
	_, err := Parse(url.Values{"is_completed": {"maybe"}})

	var ferr *Error
	require.ErrorAs(t, err, &ferr)
	assert.Contains(t, ferr.Fields, "is_completed")
}

func TestMatchIsConjunctiveAndCaseInsensitive(t *testing.T) {
	todos := []models.Todo{
		{ID: "1", Title: "test 1", IsCompleted: true},
		{ID: "2", Title: "unteost 2", IsCompleted: false},
		{ID: "3", Title: "test 3", IsCompleted: true},
		{ID: "4", Title: "TEST 4", IsCompleted: false},
	}
	done := true
	c := Criteria{Title: "test", IsCompleted: &done}

	var got []string
	for _, td := range todos {
		if c.Match(td) {
			got = append(got, td.ID)
		}
	}
	assert.Equal(t, []string{"1", "3"}, got)

	assert.True(t, Criteria{Title: "tEsT"}.Match(todos[3]))
	assert.True(t, Criteria{Description: "MILK"}.Match(models.Todo{Description: "buy milk"}))
	assert.False(t, Criteria{Description: "bread"}.Match(models.Todo{Description: "buy milk"}))
}

func TestSQL(t *testing.T) {
	clause, args := Criteria{}.SQL(2)
	assert.Empty(t, clause)
	assert.Empty(t, args)

	done := false
	clause, args = Criteria{Title: "a", Description: "b", IsCompleted: &done}.SQL(2)
	assert.Equal(t,
		" AND strpos(lower(title), lower($2)) > 0"+
			" AND strpos(lower(description), lower($3)) > 0"+
			" AND is_completed = $4", clause)
	assert.Equal(t, []any{"a", "b", false}, args)
}
