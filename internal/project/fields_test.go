package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"05/03/2024", "2024-03-05"},
		{"31/12/1999", "1999-12-31"},
		{"2024-03-05", "2024-03-05"},
		{"5/3/2024", "5/3/2024"},
		{"March 5th", "March 5th"},
		{"", ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeDate(tc.in))
		})
	}
}

func TestColumn(t *testing.T) {
	t.Parallel()

	col, ok := Column(FieldFiveSType)
	assert.True(t, ok)
	assert.Equal(t, "five_s_type", col)

	col, ok = Column(FieldBeforeImage)
	assert.True(t, ok)
	assert.Equal(t, "before_image_url", col)

	_, ok = Column("five_s_type")
	assert.False(t, ok)

	assert.Len(t, columns, 20)
}
