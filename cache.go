// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfview

import (
	"container/list"
	"fmt"

	"github.com/sassoftware/viya-pdf-view/logger"
)

// pageCache keeps at most budget parsed pages resident. Pages are loaded on
// first use and released least recently used first.
type pageCache struct {
	doc    BackendDocument
	slots  []*list.Element
	lru    *list.List
	budget int
	// last is the most recently touched page, -1 before the first access.
	last int
}

type cachedPage struct {
	index int
	page  BackendPage
}

func newPageCache(doc BackendDocument, count, budget int) *pageCache {
	return &pageCache{
		doc:    doc,
		slots:  make([]*list.Element, count),
		lru:    list.New(),
		budget: budget,
		last:   -1,
	}
}

// get returns the page at index, loading it when it is not resident.
// A failed load leaves the slot empty.
func (c *pageCache) get(index int) (BackendPage, error) {
	if index < 0 || index >= len(c.slots) {
		return nil, fmt.Errorf("page index %d out of range [0,%d)", index, len(c.slots))
	}
	if el := c.slots[index]; el != nil {
		c.lru.MoveToFront(el)
		return el.Value.(*cachedPage).page, nil
	}

	if c.lru.Len() >= c.budget {
		c.evict()
	}

	p, err := c.doc.LoadPage(index)
	if err != nil {
		logger.Debug(fmt.Sprintf("cache: load failed: page=%d err=%v", index+1, err), true)
		return nil, err
	}
	c.slots[index] = c.lru.PushFront(&cachedPage{index: index, page: p})
	logger.Debug(fmt.Sprintf("cache: loaded: page=%d resident=%d", index+1, c.lru.Len()))
	return p, nil
}

func (c *pageCache) evict() {
	back := c.lru.Back()
	if back == nil {
		return
	}
	cp := c.lru.Remove(back).(*cachedPage)
	c.slots[cp.index] = nil
	cp.page.Close()
	logger.Debug(fmt.Sprintf("cache: evicted: page=%d", cp.index+1))
}

// touch ages the backend's object store when the caller moves to a
// different page.
func (c *pageCache) touch(index, maxAge int) {
	if index == c.last {
		return
	}
	c.doc.AgeStore(maxAge)
	c.last = index
}

func (c *pageCache) resident() int { return c.lru.Len() }

// releaseAll closes every resident page.
func (c *pageCache) releaseAll() {
	for el := c.lru.Front(); el != nil; el = el.Next() {
		cp := el.Value.(*cachedPage)
		c.slots[cp.index] = nil
		cp.page.Close()
	}
	c.lru.Init()
}
