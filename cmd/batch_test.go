package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumahq/roster/pkg/roster"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contacts.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestReadContactsCSV(t *testing.T) {
	path := writeCSV(t, `name,email,attendance,rsvp
Jane Doe,jane@example.com,required,accepted
,vendor@outside.org,,
Bob Jones,bob@example.com,optional,tentative
`)

	contacts, err := readContactsCSV(path)
	require.NoError(t, err)
	require.Len(t, contacts, 3)

	assert.Equal(t, roster.Contact{
		Name:           "Jane Doe",
		Email:          "jane@example.com",
		AttendanceType: "required",
		ResponseStatus: "accepted",
	}, contacts[0])
	assert.Equal(t, roster.Contact{Email: "vendor@outside.org"}, contacts[1])
	assert.Equal(t, "tentative", contacts[2].ResponseStatus)
}

func TestReadContactsCSV_EmailOnlyHeader(t *testing.T) {
	path := writeCSV(t, "email\njane@example.com\n")

	contacts, err := readContactsCSV(path)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "jane@example.com", contacts[0].Email)
	assert.Empty(t, contacts[0].Name)
}

func TestReadContactsCSV_HeaderCaseInsensitive(t *testing.T) {
	path := writeCSV(t, "Name,Email\nJane,jane@example.com\n")

	contacts, err := readContactsCSV(path)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Jane", contacts[0].Name)
}

func TestReadContactsCSV_MissingEmailColumn(t *testing.T) {
	path := writeCSV(t, "name,phone\nJane,555-0100\n")

	_, err := readContactsCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
}

func TestReadContactsCSV_MissingFile(t *testing.T) {
	_, err := readContactsCSV(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}
