package refdata

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/dms"
	log "github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/logging"
)

// Cache - process-lifetime cache of the three reference lookup tables. The
// first call to any getter loads that whole table, by intent: every run that
// touches one instrument will touch many.
type Cache struct {
	repo    dms.Repository
	retries int

	mu          sync.RWMutex
	instruments map[string]dms.InstrumentInfo
	operators   []dms.OperatorInfo
	solutions   []dms.ErrorSolution

	instLoaded bool
	opLoaded   bool
	solLoaded  bool
}

// InitCache - ...
func InitCache(repo dms.Repository, retries int) *Cache {
	if retries < 1 {
		retries = 1
	}
	return &Cache{
		repo:    repo,
		retries: retries,
	}
}

// GetInstrument - ...
func (c *Cache) GetInstrument(ctx context.Context, name string) (dms.InstrumentInfo, bool) {
	c.ensureInstruments(ctx)
	c.mu.RLock()
	defer c.mu.RUnlock()
	inst, ok := c.instruments[strings.ToLower(name)]
	return inst, ok
}

// GetErrorSolution - substring-match the failure text against the known error
// table; empty when nothing applies.
func (c *Cache) GetErrorSolution(ctx context.Context, errorText string) string {
	c.ensureSolutions(ctx)
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, sol := range c.solutions {
		if sol.ErrorText != "" && strings.Contains(errorText, sol.ErrorText) {
			return sol.Solution
		}
	}
	return ""
}

// ReloadAll - drop every table and load fresh.
func (c *Cache) ReloadAll(ctx context.Context) {
	c.mu.Lock()
	c.instLoaded = false
	c.opLoaded = false
	c.solLoaded = false
	c.mu.Unlock()
	c.ensureInstruments(ctx)
	c.ensureOperators(ctx)
	c.ensureSolutions(ctx)
}

func (c *Cache) ensureInstruments(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.instLoaded {
		return
	}
	c.instruments = map[string]dms.InstrumentInfo{}
	err := c.withRetries(ctx, "instruments", func() error {
		instruments, err := c.repo.SelectInstruments(ctx)
		if err != nil {
			return err
		}
		for _, inst := range instruments {
			c.instruments[strings.ToLower(inst.Name)] = inst
		}
		return nil
	})
	// A failed load is logged, not raised; getters report not-found and the
	// candidate fails on its own terms.
	c.instLoaded = err == nil
}

func (c *Cache) ensureOperators(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opLoaded {
		return
	}
	err := c.withRetries(ctx, "operators", func() error {
		operators, err := c.repo.SelectOperators(ctx)
		if err != nil {
			return err
		}
		c.operators = operators
		return nil
	})
	c.opLoaded = err == nil
}

func (c *Cache) ensureSolutions(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.solLoaded {
		return
	}
	err := c.withRetries(ctx, "error_solutions", func() error {
		solutions, err := c.repo.SelectErrorSolutions(ctx)
		if err != nil {
			return err
		}
		c.solutions = solutions
		return nil
	})
	c.solLoaded = err == nil
}

func (c *Cache) withRetries(ctx context.Context, table string, load func() error) error {
	var err error
	for attempt := 1; attempt <= c.retries; attempt++ {
		err = load()
		if err == nil {
			return nil
		}
		log.WithFields(log.Fields{
			"event":   "reference_load_failed",
			"table":   table,
			"attempt": attempt,
		}).Error(err)
		if attempt < c.retries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
		}
	}
	return err
}
