package roster

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRosterTrimsFields(t *testing.T) {
	rows, err := ReadRoster(strings.NewReader(" P001 , a@x.com ,  Jane Doe , US \nP002,b@x.com,John Smith,DE\n"))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.NoError(t, rows[0].Err)
	assert.Equal(t, Participant{ID: "P001", Email: "a@x.com", Name: "Jane Doe", Country: "US"}, rows[0].Participant)
	assert.Equal(t, 1, rows[0].Line)
	assert.Equal(t, "P002", rows[1].Participant.ID)
	assert.Equal(t, 2, rows[1].Line)
}

func TestReadRosterNoHeader(t *testing.T) {
	rows, err := ReadRoster(strings.NewReader("id,email,name,country\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NoError(t, rows[0].Err)
	assert.Equal(t, "id", rows[0].Participant.ID)
}

func TestReadRosterMalformedRowsAreKept(t *testing.T) {
	input := "P001,a@x.com,Jane Doe,US\nP002,b@x.com\n\nP003,c@x.com,Ann Lee,FR,extra\n,d@x.com,,NL\nP005,e@x.com,Bo,SE\n"
	rows, err := ReadRoster(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.NoError(t, rows[0].Err)
	assert.ErrorIs(t, rows[1].Err, ErrMalformedRow)
	assert.Equal(t, 2, rows[1].Line)
	assert.ErrorIs(t, rows[2].Err, ErrMalformedRow)
	assert.Equal(t, 4, rows[2].Line)
	assert.ErrorIs(t, rows[3].Err, ErrMalformedRow)
	assert.NoError(t, rows[4].Err)
	assert.Equal(t, "P005", rows[4].Participant.ID)
}

func TestLoadRosterMissingFile(t *testing.T) {
	_, err := LoadRoster(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadRosterFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "participants.csv")
	require.NoError(t, os.WriteFile(path, []byte("P001,a@x.com,Jane Doe,US\n"), 0o644))

	rows, err := LoadRoster(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Jane Doe", rows[0].Participant.Name)
}

func TestFilter(t *testing.T) {
	rows := []Row{
		{Line: 1, Participant: Participant{ID: "P001", Country: "US"}},
		{Line: 2, Participant: Participant{ID: "P002", Country: "DE"}},
		{Line: 3, Err: ErrMalformedRow},
		{Line: 4, Participant: Participant{ID: "P004", Country: "us"}},
	}

	assert.Len(t, Filter(rows, FilterOptions{}), 4)

	byID := Filter(rows, FilterOptions{IDs: []string{"p002"}})
	require.Len(t, byID, 1)
	assert.Equal(t, "P002", byID[0].Participant.ID)

	byCountry := Filter(rows, FilterOptions{Countries: []string{"US"}})
	require.Len(t, byCountry, 2)
	assert.Equal(t, "P001", byCountry[0].Participant.ID)
	assert.Equal(t, "P004", byCountry[1].Participant.ID)
}
