package pagination

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opticart/internal/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    Params
		wantErr bool
	}{
		{"defaults", "", Params{Page: 1, PageSize: 4}, false},
		{"explicit", "page=3&page_size=10", Params{Page: 3, PageSize: 10}, false},
		{"size capped", "page_size=5000", Params{Page: 1, PageSize: 1000}, false},
		{"bad size ignored", "page_size=abc", Params{Page: 1, PageSize: 4}, false},
		{"zero size ignored", "page_size=0", Params{Page: 1, PageSize: 4}, false},
		{"bad page", "page=abc", Params{}, true},
		{"zero page", "page=0", Params{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			got, err := Parse(q, 4, 1000)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrInvalidPage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParams_OffsetLimit(t *testing.T) {
	p := Params{Page: 3, PageSize: 4}
	assert.Equal(t, 8, p.Offset())
	assert.Equal(t, 4, p.Limit())
}

func TestNew_Links(t *testing.T) {
	base, err := url.Parse("http://shop.test/api/products/?keyword=sun&page=2")
	require.NoError(t, err)

	page, err := New([]int{5, 6, 7, 8}, 10, Params{Page: 2, PageSize: 4}, base)
	require.NoError(t, err)
	assert.EqualValues(t, 10, page.Count)
	require.NotNil(t, page.Next)
	assert.Equal(t, "http://shop.test/api/products/?keyword=sun&page=3", *page.Next)
	require.NotNil(t, page.Previous)
	assert.Equal(t, "http://shop.test/api/products/?keyword=sun", *page.Previous)
}

func TestNew_LastPage(t *testing.T) {
	page, err := New([]int{9, 10}, 10, Params{Page: 3, PageSize: 4}, &url.URL{Path: "/api/products/"})
	require.NoError(t, err)
	assert.Nil(t, page.Next)
	assert.NotNil(t, page.Previous)
}

func TestNew_EmptyFirstPage(t *testing.T) {
	page, err := New[int](nil, 0, Params{Page: 1, PageSize: 4}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{}, page.Results)
	assert.Nil(t, page.Next)
	assert.Nil(t, page.Previous)
}

func TestNew_PastLastPage(t *testing.T) {
	_, err := New([]int{}, 3, Params{Page: 2, PageSize: 4}, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidPage)
}
