// Package gramqs has services for interacting with the gramq analysis server
// backend decoupled from the API that accesses it.
package gramqs

import (
	"sync"

	"github.com/dekarrin/gramq"
	"github.com/dekarrin/gramq/server/dao"
	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/google/uuid"
)

// DefaultCacheSize is the number of grammar analyses kept by a Service created
// with New.
const DefaultCacheSize = 64

// Service is a service for interacting with and modifying the gramq server
// backend. It performs the actions requested and makes calls to server
// persistence to preserve the backend state.
//
// A Service created with New keeps the derived sets of recently used grammars
// so repeated requests against one grammar do not redo the analysis. A
// Service with only DB set works the same but analyzes from scratch each time.
type Service struct {

	// DB is the persistence store of the service.
	DB dao.Store

	cache *analysisCache
}

// New returns a Service backed by db that caches up to DefaultCacheSize
// analyses.
func New(db dao.Store) Service {
	return NewWithCacheSize(db, DefaultCacheSize)
}

// NewWithCacheSize returns a Service backed by db that caches up to size
// analyses. A size less than 1 disables the cache.
func NewWithCacheSize(db dao.Store, size int) Service {
	svc := Service{DB: db}
	if size > 0 {
		svc.cache = newAnalysisCache(size)
	}
	return svc
}

// analysisCache holds the Analysis of up to size grammars, evicting the one
// added longest ago when full. Stored grammars never change, so an entry is
// only dropped by eviction or by the grammar being deleted.
type analysisCache struct {
	mtx     sync.Mutex
	size    int
	entries map[uuid.UUID]*gramq.Analysis
	order   *arraylist.List
}

func newAnalysisCache(size int) *analysisCache {
	return &analysisCache{
		size:    size,
		entries: map[uuid.UUID]*gramq.Analysis{},
		order:   arraylist.New(),
	}
}

func (c *analysisCache) get(id uuid.UUID) (*gramq.Analysis, bool) {
	if c == nil {
		return nil, false
	}
	c.mtx.Lock()
	defer c.mtx.Unlock()

	an, ok := c.entries[id]
	return an, ok
}

func (c *analysisCache) put(id uuid.UUID, an *gramq.Analysis) {
	if c == nil {
		return
	}
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if _, ok := c.entries[id]; ok {
		c.entries[id] = an
		return
	}

	for c.order.Size() >= c.size && c.order.Size() > 0 {
		oldest, _ := c.order.Get(0)
		c.order.Remove(0)
		delete(c.entries, oldest.(uuid.UUID))
	}

	c.entries[id] = an
	c.order.Add(id)
}

func (c *analysisCache) drop(id uuid.UUID) {
	if c == nil {
		return
	}
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if _, ok := c.entries[id]; !ok {
		return
	}
	delete(c.entries, id)
	for i := 0; i < c.order.Size(); i++ {
		v, _ := c.order.Get(i)
		if v.(uuid.UUID) == id {
			c.order.Remove(i)
			break
		}
	}
}

func (c *analysisCache) len() int {
	if c == nil {
		return 0
	}
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return len(c.entries)
}
