// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageCache_LoadsOnce(t *testing.T) {
	fd := newFakeDoc(3)
	c := newPageCache(fd, 3, 2)

	p1, err := c.get(1)
	require.NoError(t, err)
	p2, err := c.get(1)
	require.NoError(t, err)
	assert.Same(t, p1, p2)
	assert.Equal(t, []string{"load 1"}, fd.events)
	assert.Equal(t, 1, c.resident())
}

func TestPageCache_EvictsLeastRecentlyUsed(t *testing.T) {
	fd := newFakeDoc(3)
	c := newPageCache(fd, 3, 2)

	for _, i := range []int{0, 1, 0, 2} {
		_, err := c.get(i)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"load 0", "load 1", "release 1", "load 2"}, fd.events)
	assert.Equal(t, 2, c.resident())

	c.releaseAll()
	assert.Equal(t, 0, c.resident())
	assert.ElementsMatch(t, []string{"release 2", "release 0"}, fd.events[4:])

	_, err := c.get(1)
	require.NoError(t, err)
	assert.Equal(t, "load 1", fd.events[len(fd.events)-1])
}

func TestPageCache_FailedLoadLeavesSlotEmpty(t *testing.T) {
	fd := newFakeDoc(2)
	fd.failLoad[1] = true
	c := newPageCache(fd, 2, 4)

	_, err := c.get(1)
	assert.ErrorIs(t, err, errFake)
	assert.Equal(t, 0, c.resident())

	delete(fd.failLoad, 1)
	_, err = c.get(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"load 1", "load 1"}, fd.events)
}

func TestPageCache_OutOfRange(t *testing.T) {
	c := newPageCache(newFakeDoc(1), 1, 1)
	_, err := c.get(1)
	assert.Error(t, err)
	_, err = c.get(-1)
	assert.Error(t, err)
}

func TestPageCache_TouchAgesOnPageChange(t *testing.T) {
	fd := newFakeDoc(2)
	c := newPageCache(fd, 2, 2)

	c.touch(0, 1)
	c.touch(0, 1)
	c.touch(1, 4)
	c.touch(0, 4)
	assert.Equal(t, []string{"age 1", "age 4", "age 4"}, fd.events)
}

func TestDocument_ResidentBudget(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.MaxResidentPages = 2
	fd := newFakeDoc(4)
	doc := openFake(t, cfg, fd)
	defer doc.Close()

	for i := 0; i < 4; i++ {
		_, err := doc.ExtractText(i)
		require.NoError(t, err)
		assert.LessOrEqual(t, doc.Resident(), 2)
	}
	assert.Equal(t, 2, doc.Resident())
	assert.Contains(t, fd.events, "release 0")
	assert.Contains(t, fd.events, "release 1")
}

func TestDocument_PageLoadFailureKeepsHandle(t *testing.T) {
	fd := newFakeDoc(2)
	fd.failLoad[0] = true
	doc := openFake(t, nil, fd)
	defer doc.Close()

	_, err := doc.ExtractText(0)
	assert.ErrorIs(t, err, ErrPageLoad)
	assert.Equal(t, 0, doc.Resident())

	_, err = doc.ExtractText(1)
	require.NoError(t, err)
	n, err := doc.PageCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
