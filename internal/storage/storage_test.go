package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatch(t *testing.T) {
	t.Parallel()

	p := Patch{"status": "WAITING", "solution": "x", "submitted_at": nil}
	assert.Equal(t, []string{"solution", "status", "submitted_at"}, p.Columns())
	assert.NoError(t, p.CheckProject())
	assert.Error(t, p.CheckEmployee())

	assert.Error(t, Patch{"id": 1}.CheckProject())
	assert.Error(t, Patch{"employee_id": "u2"}.CheckProject())
	assert.Error(t, Patch{}.CheckProject())
	assert.NoError(t, Patch{"approver": nil, "active": false}.CheckEmployee())
}
