package uploads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
)

// DefaultCollection is the per-tenant collection holding upload records.
const DefaultCollection = "pdf_summaries"

// Collection is a handle bound to one tenant's upload records.
type Collection interface {
	Insert(ctx context.Context, rec Record) error
}

// Accessor opens tenant collections by database name. Opening performs no I/O;
// the document store creates databases on first write.
type Accessor interface {
	Open(dbName string) (Collection, error)
}

var errEmptyDBName = errors.New("db name is empty")

// MongoAccessor maps each db name to its own MongoDB database.
type MongoAccessor struct {
	Client     *mongo.Client
	Collection string
}

// NewMongoAccessor constructs a MongoAccessor using collection, or
// DefaultCollection when empty.
func NewMongoAccessor(client *mongo.Client, collection string) *MongoAccessor {
	if strings.TrimSpace(collection) == "" {
		collection = DefaultCollection
	}
	return &MongoAccessor{Client: client, Collection: collection}
}

func (a *MongoAccessor) Open(dbName string) (Collection, error) {
	if dbName == "" {
		return nil, errEmptyDBName
	}
	if a == nil || a.Client == nil {
		return nil, errors.New("mongo client not configured")
	}
	return mongoCollection{coll: a.Client.Database(dbName).Collection(a.Collection)}, nil
}

type mongoCollection struct {
	coll *mongo.Collection
}

func (c mongoCollection) Insert(ctx context.Context, rec Record) error {
	if _, err := c.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert into %s.%s: %w", c.coll.Database().Name(), c.coll.Name(), err)
	}
	return nil
}

// MemoryAccessor keeps records per db name in memory.
type MemoryAccessor struct {
	mu   sync.RWMutex
	data map[string][]Record
}

// NewMemoryAccessor constructs a MemoryAccessor.
func NewMemoryAccessor() *MemoryAccessor {
	return &MemoryAccessor{data: make(map[string][]Record)}
}

func (a *MemoryAccessor) Open(dbName string) (Collection, error) {
	if dbName == "" {
		return nil, errEmptyDBName
	}
	return memoryCollection{parent: a, dbName: dbName}, nil
}

// Records returns a copy of the records stored under dbName.
func (a *MemoryAccessor) Records(dbName string) []Record {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Record, len(a.data[dbName]))
	copy(out, a.data[dbName])
	return out
}

// Databases returns the number of databases that hold at least one record.
func (a *MemoryAccessor) Databases() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.data)
}

type memoryCollection struct {
	parent *MemoryAccessor
	dbName string
}

func (c memoryCollection) Insert(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.parent.mu.Lock()
	defer c.parent.mu.Unlock()
	for _, existing := range c.parent.data[c.dbName] {
		if existing.ID == rec.ID {
			return fmt.Errorf("insert %s: duplicate _id %s", c.dbName, rec.ID)
		}
	}
	c.parent.data[c.dbName] = append(c.parent.data[c.dbName], rec)
	return nil
}
