// internal/schema/value_test.go
package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert_Text(t *testing.T) {
	m := FieldMapping{SourceField: "f", Attribute: "a", Type: TypeText}
	v, err := m.Convert("  Jo ")
	require.NoError(t, err)
	assert.Equal(t, "Jo", v)
}

func TestConvert_Number(t *testing.T) {
	m := FieldMapping{SourceField: "f", Attribute: "a", Type: TypeNumber}

	v, err := m.Convert(" 4 ")
	require.NoError(t, err)
	assert.Equal(t, float64(4), v)

	v, err = m.Convert("3.5")
	require.NoError(t, err)
	assert.Equal(t, 3.5, v)

	_, err = m.Convert("four")
	assert.Error(t, err)
}

func TestConvert_Date(t *testing.T) {
	m := FieldMapping{SourceField: "f", Attribute: "a", Type: TypeDate}

	v, err := m.Convert("2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14", v)

	v, err = m.Convert("03/14/2025")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14", v)

	v, err = m.Convert("2025-03-14T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14", v)

	_, err = m.Convert("next tuesday")
	assert.Error(t, err)
}

func TestConvert_MultiSelect(t *testing.T) {
	m := FieldMapping{SourceField: "f", Attribute: "a", Type: TypeMultiSelect}

	v, err := m.Convert("Managing finances online, Not sure where to start ,")
	require.NoError(t, err)
	assert.Equal(t, []string{"Managing finances online", "Not sure where to start"}, v)

	v, err = m.Convert("single choice")
	require.NoError(t, err)
	assert.Equal(t, []string{"single choice"}, v)
}
