package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lollipop-edu/lollipop-backend/internal/config"
	"github.com/lollipop-edu/lollipop-backend/internal/model"
	"github.com/lollipop-edu/lollipop-backend/internal/repository"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultWorker consumes persist_results_queue and writes graded session
// results to PostgreSQL in batches. After a batch lands, the live answer
// hashes of those sessions are dropped from Redis.
type ResultWorker struct {
	resultRepo *repository.ResultRepository
	rdb        *redis.Client
	log        zerolog.Logger
}

// NewResultWorker creates a new ResultWorker.
func NewResultWorker(resultRepo *repository.ResultRepository, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		resultRepo: resultRepo,
		rdb:        rdb,
		log:        log.With().Str("component", "result_worker").Logger(),
	}
}

type resultPayload struct {
	StudentID      int     `json:"student_id"`
	HomeworkID     string  `json:"homework_id"`
	TotalQuestions int     `json:"total_questions"`
	CorrectAnswers int     `json:"correct_answers"`
	Score          float64 `json:"score"`
}

// Start begins the batching worker loop. Call in a goroutine.
func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	batch := make([]*resultPayload, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p resultPayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

// flushSafe writes a batch in one statement, falling back to per-item
// upserts with requeue when the bulk write fails.
func (w *ResultWorker) flushSafe(ctx context.Context, batch []*resultPayload) {
	if len(batch) == 0 {
		return
	}

	results := make([]*model.Result, 0, len(batch))
	valid := make([]*resultPayload, 0, len(batch))
	for _, p := range batch {
		res, err := p.toModel()
		if err != nil {
			w.log.Error().Err(err).Str("homework_id", p.HomeworkID).Msg("Invalid result payload")
			continue
		}
		results = append(results, res)
		valid = append(valid, p)
	}
	if len(results) == 0 {
		return
	}

	if err := w.resultRepo.BulkUpsert(ctx, results); err != nil {
		w.log.Warn().Err(err).Msg("Bulk result upsert failed, using fallback")

		for i, res := range results {
			if err := w.resultRepo.Upsert(ctx, res); err != nil {
				w.log.Error().Err(err).Msg("Single upsert failed, requeueing")
				raw, _ := json.Marshal(valid[i])
				w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
			}
		}
		return
	}

	w.log.Info().Int("count", len(results)).Msg("Results persisted")

	// The durable rows now exist; the session hashes are no longer needed.
	w.clearSessionAnswers(ctx, valid)
}

func (w *ResultWorker) clearSessionAnswers(ctx context.Context, batch []*resultPayload) {
	pipe := w.rdb.Pipeline()
	for _, p := range batch {
		pipe.Del(ctx, config.CacheKey.StudentAnswersKey(p.HomeworkID, p.StudentID))
	}
	_, _ = pipe.Exec(ctx)
}

func (p *resultPayload) toModel() (*model.Result, error) {
	homeworkID, err := uuid.Parse(p.HomeworkID)
	if err != nil {
		return nil, err
	}
	return &model.Result{
		HomeworkID:     homeworkID,
		StudentID:      p.StudentID,
		TotalQuestions: p.TotalQuestions,
		CorrectAnswers: p.CorrectAnswers,
		Score:          p.Score,
	}, nil
}
