package film

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kinotech/filmdex/internal/db"
	"github.com/kinotech/filmdex/internal/domain"
)

// Scanner drains the whole film collection exactly once, hiding the
// store cursor lifecycle. Not restartable: a consumed cursor is gone.
type Scanner struct {
	ctx      context.Context
	store    store
	logger   *zap.Logger
	batch    int
	batchTTL time.Duration

	cursor *db.Cursor
	buf    []domain.Film
	opened bool
	closed bool
	err    error
}

// Next yields the next film. Returns false once the collection is
// exhausted or a failure occurred (check Err afterwards). An absent
// collection yields an empty sequence, not an error.
func (s *Scanner) Next() (domain.Film, bool) {
	for {
		if s.err != nil || s.closed {
			return domain.Film{}, false
		}

		if len(s.buf) > 0 {
			f := s.buf[0]
			s.buf = s.buf[1:]
			return f, true
		}

		if !s.opened {
			s.opened = true
			cur, err := s.store.OpenScan(s.ctx, indexName, s.batch, s.batchTTL)
			if err != nil {
				if errors.Is(err, db.ErrIndexNotFound) {
					s.Close()
					return domain.Film{}, false
				}
				s.err = fmt.Errorf("open film scan: %w", err)
				return domain.Film{}, false
			}
			s.cursor = cur
		}

		entries, err := s.store.AdvanceScan(s.ctx, s.cursor)
		if err != nil {
			s.err = fmt.Errorf("advance film scan: %w", err)
			s.Close()
			return domain.Film{}, false
		}
		if len(entries) == 0 {
			s.Close()
			return domain.Film{}, false
		}

		s.buf = make([]domain.Film, 0, len(entries))
		for _, entry := range entries {
			f, err := parseEntryFilm(entry)
			if err != nil {
				s.logger.Warn("skipping malformed film in scan",
					zap.String("key", entry.Key), zap.Error(err))
				continue
			}
			s.buf = append(s.buf, f)
		}
	}
}

// Err returns the first failure encountered, nil after a clean pass.
func (s *Scanner) Err() error {
	return s.err
}

// Close releases the cursor. Idempotent; safe on a never-advanced scanner.
func (s *Scanner) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.cursor != nil {
		_ = s.store.CloseScan(s.ctx, s.cursor)
	}
}
