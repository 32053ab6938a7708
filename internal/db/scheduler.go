package db

import (
	"log"
	"time"

	"gorm.io/gorm"
)

// AggregationTask asks the worker to rebuild one project's aggregates for
// one calendar day. A zero Slug means every project.
type AggregationTask struct {
	Slug string
	Date string
}

// AggregationQueue decouples ingestion latency from aggregation cost: the
// ingest path enqueues a task and returns, and a single worker goroutine
// drains the queue. One consumer also serializes runs, so two tasks for
// the same (project, date) can never interleave their clear-and-rebuild
// steps.
type AggregationQueue struct {
	tasks chan AggregationTask
}

func NewAggregationQueue(size int) *AggregationQueue {
	if size <= 0 {
		size = 256
	}
	return &AggregationQueue{tasks: make(chan AggregationTask, size)}
}

// Enqueue submits a task without blocking. When the queue is full the task
// is dropped and counted; that is safe to do because the nightly run
// recomputes the same day from scratch.
func (q *AggregationQueue) Enqueue(task AggregationTask) bool {
	select {
	case q.tasks <- task:
		return true
	default:
		log.Printf("aggregation queue full, dropping task project=%q date=%s", task.Slug, task.Date)
		return false
	}
}

func (q *AggregationQueue) run(db *gorm.DB) {
	for task := range q.tasks {
		if err := runTask(db, task); err != nil {
			log.Printf("aggregation error project=%q date=%s: %v", task.Slug, task.Date, err)
		}
	}
}

func runTask(db *gorm.DB, task AggregationTask) error {
	if task.Slug == "" {
		return RecomputeAll(db, task.Date)
	}
	prj, err := GetProjectBySlug(db, task.Slug)
	if err != nil {
		return err
	}
	return RecomputeProject(db, prj, task.Date)
}

// StartAggregationWorker launches the queue consumer plus a daily ticker
// that enqueues the all-projects run for the previous day. One such run
// also fires at startup, so a restart never leaves yesterday unaggregated.
func StartAggregationWorker(db *gorm.DB, q *AggregationQueue) {
	go q.run(db)

	go func() {
		q.Enqueue(AggregationTask{Date: Yesterday(time.Now())})

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for t := range ticker.C {
			q.Enqueue(AggregationTask{Date: Yesterday(t)})
		}
	}()
}
