package oracle

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	gocache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/qntropy/qntropy/internal/qerr"
)

// Record is one cached (asset, day) -> price entry.
type Record struct {
	Day       string // YYYY-MM-DD
	Asset     string
	PriceEUR  decimal.Decimal
	Source    string
	FetchedAt time.Time
}

// Cache is the on-disk, append-only, content-addressed price store of §4.2.
// It is sharded one file per (asset, year-month), never evicted, committed
// via a flock-guarded write-tmp-then-rename so two processes reading
// concurrently always see a consistent file. A process-local go-cache layer
// sits in front so repeated lookups of the same (asset, day) within one run
// don't reopen the shard file; the disk store remains the source of truth.
type Cache struct {
	dir string
	mem *gocache.Cache
}

// NewCache opens (creating if necessary) the on-disk cache rooted at dir.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, qerr.New(qerr.CacheIOError, "", fmt.Errorf("creating cache dir %s: %w", dir, err))
	}
	return &Cache{
		dir: dir,
		mem: gocache.New(5*time.Minute, 10*time.Minute),
	}, nil
}

func shardPath(dir, asset, day string) string {
	ym := day[:7] // YYYY-MM
	return filepath.Join(dir, fmt.Sprintf("%s-%s.csv", asset, ym))
}

func memKey(asset, day string) string { return asset + "|" + day }

// Lookup returns the cached record for (asset, day), and whether it was
// found at all (on disk or in the memory layer).
func (c *Cache) Lookup(asset, day string) (Record, bool, error) {
	if v, ok := c.mem.Get(memKey(asset, day)); ok {
		return v.(Record), true, nil
	}

	path := shardPath(c.dir, asset, day)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, false, nil
		}
		return Record{}, false, qerr.New(qerr.CacheIOError, "", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		rec, ok := parseLine(scanner.Text())
		if !ok || rec.Asset != asset || rec.Day != day {
			continue
		}
		// Duplicates for the same (asset, day) resolve to the first line.
		c.mem.Set(memKey(asset, day), rec, gocache.DefaultExpiration)
		return rec, true, nil
	}
	if err := scanner.Err(); err != nil {
		return Record{}, false, qerr.New(qerr.CacheIOError, "", err)
	}
	return Record{}, false, nil
}

// Store appends rec to its shard, guarded by a flock so concurrent
// pre-warm workers never interleave writes to the same shard file, and
// commits via write-tmp-then-rename for crash safety. If (asset, day) is
// already present, Store is a no-op (first write wins, per §6).
func (c *Cache) Store(rec Record) error {
	if existing, ok, err := c.Lookup(rec.Asset, rec.Day); err != nil {
		return err
	} else if ok {
		_ = existing
		return nil
	}

	path := shardPath(c.dir, rec.Asset, rec.Day)
	lockPath := path + ".lock"
	lock := flock.New(lockPath)
	if err := lock.Lock(); err != nil {
		return qerr.New(qerr.CacheIOError, "", fmt.Errorf("locking %s: %w", lockPath, err))
	}
	defer lock.Unlock()

	existing, _ := os.ReadFile(path) // missing file is fine, existing stays nil

	tmp := path + ".tmp"
	content := append(append([]byte{}, existing...), []byte(formatLine(rec)+"\n")...)
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return qerr.New(qerr.CacheIOError, "", fmt.Errorf("writing %s: %w", tmp, err))
	}
	if err := os.Rename(tmp, path); err != nil {
		return qerr.New(qerr.CacheIOError, "", fmt.Errorf("renaming %s -> %s: %w", tmp, path, err))
	}

	c.mem.Set(memKey(rec.Asset, rec.Day), rec, gocache.DefaultExpiration)
	return nil
}

func formatLine(r Record) string {
	return fmt.Sprintf("%s,%s,%s,%s", r.Day, r.Asset, r.PriceEUR.String(), r.Source)
}

func parseLine(line string) (Record, bool) {
	parts := strings.SplitN(line, ",", 4)
	if len(parts) != 4 {
		return Record{}, false
	}
	price, err := decimal.NewFromString(parts[2])
	if err != nil {
		return Record{}, false
	}
	return Record{Day: parts[0], Asset: parts[1], PriceEUR: price, Source: parts[3]}, true
}
