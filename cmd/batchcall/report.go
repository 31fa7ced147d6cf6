package main

import (
	"context"
	"fmt"

	"github.com/kbukum/gobatch/dag"
	"github.com/kbukum/gobatch/logger"
	"github.com/kbukum/gobatch/store"
)

// report logs one line per node in id order, then a batch summary.
func report(log *logger.Logger, name string, res *dag.BatchResult) {
	for _, id := range res.IDs() {
		r, _ := res.Result(id)
		fields := logger.Fields(
			logger.FieldBatchID, res.ID,
			logger.FieldNodeID, string(id),
			logger.FieldStatus, r.Status(),
			logger.FieldOutcome, string(r.Outcome()),
			"content", r.Content().Text(),
		)
		if r.Err() != nil {
			fields[logger.FieldError] = r.Err().Error()
		}
		if r.Succeeded() {
			log.Info("node result", fields)
		} else {
			log.Warn("node result", fields)
		}
	}

	log.Info("batch finished", logger.WithDuration(logger.Fields(
		"definition", name,
		logger.FieldBatchID, res.ID,
		logger.FieldStatus, res.Status,
		logger.FieldNodes, len(res.Results),
		"unsuccessful", len(res.Unsuccessful()),
	), res.Duration))
}

func show(ctx context.Context, log *logger.Logger, st *store.ResultStore, id string) error {
	res, err := st.Load(ctx, id)
	if err != nil {
		return err
	}
	if res == nil {
		return fmt.Errorf("no stored batch %s", id)
	}
	report(log, "stored", res)
	return nil
}

// recent logs one summary line per stored batch, newest first, and returns
// the ids it listed.
func recent(ctx context.Context, log *logger.Logger, st *store.ResultStore, n int) ([]string, error) {
	ids, err := st.Recent(ctx, n)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		res, err := st.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if res == nil {
			continue
		}
		log.Info("stored batch", logger.WithDuration(logger.Fields(
			logger.FieldBatchID, res.ID,
			logger.FieldStatus, res.Status,
			logger.FieldNodes, len(res.Results),
			"unsuccessful", len(res.Unsuccessful()),
		), res.Duration))
	}
	if len(ids) == 0 {
		log.Info("no stored batches")
	}
	return ids, nil
}
