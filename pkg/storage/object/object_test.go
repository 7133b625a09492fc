package object

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginate(t *testing.T) {
	keys := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		keys = append(keys, fmt.Sprintf("k%02d", i))
	}

	first := Paginate(keys, "", 10)
	require.True(t, first.IsTruncated)
	assert.Equal(t, "k00", first.Keys[0])
	assert.Equal(t, "k09", first.NextToken)
	assert.Len(t, first.Keys, 10)

	second := Paginate(keys, first.NextToken, 10)
	require.True(t, second.IsTruncated)
	assert.Equal(t, "k10", second.Keys[0])

	last := Paginate(keys, second.NextToken, 10)
	assert.False(t, last.IsTruncated)
	assert.Empty(t, last.NextToken)
	assert.Equal(t, []string{"k20", "k21", "k22", "k23", "k24"}, last.Keys)
}

func TestPaginateEmpty(t *testing.T) {
	page := Paginate(nil, "", 0)
	assert.False(t, page.IsTruncated)
	assert.Empty(t, page.Keys)
}

func TestPutResultOK(t *testing.T) {
	assert.True(t, (&PutResult{StatusCode: 200}).OK())
	assert.True(t, (&PutResult{}).OK())
	assert.False(t, (&PutResult{StatusCode: 403}).OK())
	var nilResult *PutResult
	assert.False(t, nilResult.OK())
}

func TestSortPartsDoesNotMutateInput(t *testing.T) {
	in := []CompletedPart{{PartNumber: 3}, {PartNumber: 1}, {PartNumber: 2}}
	out := SortParts(in)
	assert.Equal(t, int32(1), out[0].PartNumber)
	assert.Equal(t, int32(3), in[0].PartNumber)
}
