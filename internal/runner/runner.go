// Package runner drives one provisioning batch: it reads the input file
// line by line, reconciles each record and issues its credential, and never
// stops on a per-record failure.
package runner

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hnrobert/lumprov/internal/batch"
	"github.com/hnrobert/lumprov/internal/credential"
	"github.com/hnrobert/lumprov/internal/logger"
	"github.com/hnrobert/lumprov/internal/reconcile"
	"github.com/hnrobert/lumprov/internal/report"
)

type Controller struct {
	Reconciler *reconcile.Reconciler
	Issuer     *credential.Issuer
	Log        *logger.Logger

	Now   func() time.Time
	NewID func() string
}

func (c *Controller) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Run processes every line of r. The returned summary covers all records
// seen; the error is set only when reading the input failed part way.
func (c *Controller) Run(input string, r io.Reader) (*report.Summary, error) {
	id := uuid.NewString()
	if c.NewID != nil {
		id = c.NewID()
	}
	sum := &report.Summary{RunID: id, Input: input, StartedAt: c.now()}
	c.Log.Info("run %s started: input %s", id, input)

	rd := batch.NewReader(r)
	for {
		rec, ok := rd.Next()
		if !ok {
			break
		}
		c.process(sum, rec)
	}
	err := rd.Err()
	if err != nil {
		c.Log.Error("read %s: %v", input, err)
		err = fmt.Errorf("read %s: %w", input, err)
	}

	sum.FinishedAt = c.now()
	c.Log.Info("%s", sum.Line())
	return sum, err
}

func (c *Controller) process(sum *report.Summary, rec batch.Record) {
	req, skip := batch.ParseRecord(rec)
	if skip != nil {
		if !skip.Malformed() {
			c.Log.Info("line %d: skipped (%s)", skip.Line, skip.Reason)
			return
		}
		if skip.Text == "" {
			c.Log.Warn("line %d: skipped (%s)", skip.Line, skip.Reason)
		} else {
			c.Log.Warn("line %d: skipped (%s): %q", skip.Line, skip.Reason, skip.Text)
		}
		sum.Add(reconcile.Outcome{Kind: reconcile.Skipped, Line: skip.Line, Reason: string(skip.Reason)})
		c.Log.Separator()
		return
	}

	out := c.Reconciler.Reconcile(req)
	if out.OK() {
		if _, err := c.Issuer.Issue(req.Username); err != nil {
			out = out.Fail(err.Error())
		}
	}
	if out.OK() {
		groups := "none"
		if len(out.Groups) > 0 {
			groups = strings.Join(out.Groups, ",")
		}
		c.Log.Info("line %d: user %s %s (groups: %s)", out.Line, out.Username, out.Kind, groups)
	}
	sum.Add(out)
	c.Log.Separator()
}
