package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/model"
	"github.com/athleticspots/athletic-spots-api/services/auth-service/internal/repository"
)

const (
	errorDedupTTL       = 5 * time.Second
	errorDedupPruneSize = 100
)

// ErrorLogUsecase records client-side error reports.
type ErrorLogUsecase interface {
	// LogClientError stores entry unless an identical type/message pair was
	// stored within the last few seconds. It reports whether it was stored.
	LogClientError(ctx context.Context, entry *model.ErrorLog) (bool, error)
}

type errorLogUsecase struct {
	errorLogRepo repository.ErrorLogRepository
	now          func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

func NewErrorLogUsecase(errorLogRepo repository.ErrorLogRepository) ErrorLogUsecase {
	return &errorLogUsecase{
		errorLogRepo: errorLogRepo,
		now:          time.Now,
		seen:         make(map[string]time.Time),
	}
}

func (u *errorLogUsecase) LogClientError(ctx context.Context, entry *model.ErrorLog) (bool, error) {
	now := u.now()
	if u.isDuplicate(entry.Type+":"+entry.Message, now) {
		return false, nil
	}

	entry.Timestamp = now
	if err := u.errorLogRepo.CreateErrorLog(ctx, entry); err != nil {
		return false, fmt.Errorf("failed to store error log: %w", err)
	}

	return true, nil
}

// isDuplicate is best effort: entries may be dropped at any time.
func (u *errorLogUsecase) isDuplicate(key string, now time.Time) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	if last, ok := u.seen[key]; ok && now.Sub(last) < errorDedupTTL {
		return true
	}

	u.seen[key] = now

	if len(u.seen) > errorDedupPruneSize {
		for k, t := range u.seen {
			if now.Sub(t) > errorDedupTTL {
				delete(u.seen, k)
			}
		}
	}

	return false
}
