package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveMappingWins(t *testing.T) {
	r := Recipient{
		Name:   "john doe",
		Fields: map[string]string{"full_title": "Dr. John Doe"},
	}
	opts := BatchOptions{
		FieldMappings: map[string]string{"name": "full_title"},
	}

	assert.Equal(t, "Dr. John Doe", Resolve(r, "name", opts))
}

func TestResolveMappingWithEmptyColumnFallsThrough(t *testing.T) {
	r := Recipient{
		Name:   "john doe",
		Fields: map[string]string{"nickname": "  "},
	}
	opts := BatchOptions{
		FieldMappings: map[string]string{"name": "nickname"},
	}

	assert.Equal(t, "john doe", Resolve(r, "name", opts))
}

func TestResolveNameCaseTransforms(t *testing.T) {
	r := Recipient{Name: "john doe"}

	assert.Equal(t, "john doe", Resolve(r, "name", BatchOptions{}))
	assert.Equal(t, "JOHN DOE", Resolve(r, "NAME", BatchOptions{}))
	assert.Equal(t, "John doe", Resolve(r, "Name", BatchOptions{}))
}

func TestResolveBatchConstants(t *testing.T) {
	r := Recipient{Name: "ann"}
	opts := BatchOptions{
		Course:       "Algorithms",
		Instructor:   "Prof. Kim",
		Organization: "Acme University",
		Date:         "2024-01-01",
	}

	assert.Equal(t, "Algorithms", Resolve(r, "course", opts))
	assert.Equal(t, "Algorithms", Resolve(r, "COURSE", opts))
	assert.Equal(t, "Prof. Kim", Resolve(r, "Instructor", opts))
	assert.Equal(t, "Acme University", Resolve(r, "organization", opts))
	assert.Equal(t, "2024-01-01", Resolve(r, "date", opts))
}

func TestResolveDateDefaultsToToday(t *testing.T) {
	r := Recipient{Name: "ann"}
	got := Resolve(r, "date", BatchOptions{})
	assert.Equal(t, time.Now().Format("2006-01-02"), got)
}

func TestResolveUnknownPlaceholderIsEmpty(t *testing.T) {
	r := Recipient{Name: "ann"}
	assert.Equal(t, "", Resolve(r, "department", BatchOptions{}))
}

func TestValuesResolvesEverything(t *testing.T) {
	r := Recipient{Name: "bo kim"}
	opts := BatchOptions{Course: "Go 101"}

	values := Values(r, []string{"name", "course", "missing"}, opts)
	assert.Equal(t, map[string]string{
		"name":    "bo kim",
		"course":  "Go 101",
		"missing": "",
	}, values)
}
