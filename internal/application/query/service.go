package query

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/doeshing/mathool/internal/application/history"
	"github.com/doeshing/mathool/internal/application/input"
	"github.com/doeshing/mathool/internal/domain"
	"github.com/doeshing/mathool/internal/ports"
)

// Service orchestrates the query lifecycle end-to-end.
type Service struct {
	History         *history.History
	MathService     ports.MathService
	Cache           ports.ResponseCache
	Logger          ports.Logger
	FillConcurrency int
}

func (s *Service) ready() error {
	if s.History == nil || s.MathService == nil || s.Logger == nil {
		return errors.New("query.Service dependencies not satisfied")
	}
	return nil
}

// Submit validates raw, dispatches it in mode and appends the result.
// A validation failure is returned as *domain.ValidationError before any
// request is made. A dispatch failure leaves the history untouched.
func (s *Service) Submit(ctx context.Context, raw string, mode domain.Mode) (domain.ResultRecord, error) {
	if err := s.ready(); err != nil {
		return domain.ResultRecord{}, err
	}
	if !mode.Valid() {
		return domain.ResultRecord{}, fmt.Errorf("%w: %q", domain.ErrUnknownMode, mode)
	}

	number, err := input.Validate(raw)
	if err != nil {
		return domain.ResultRecord{}, err
	}

	rec, err := s.dispatch(ctx, number, mode)
	if err != nil {
		return domain.ResultRecord{}, err
	}

	stored, err := s.History.Append(ctx, rec)
	if err != nil {
		return domain.ResultRecord{}, fmt.Errorf("record result: %w", err)
	}
	s.Logger.Info("query recorded", map[string]interface{}{
		"number": stored.Number.String(),
		"mode":   string(mode),
	})
	return stored, nil
}

func (s *Service) dispatch(ctx context.Context, number domain.Number, mode domain.Mode) (domain.ResultRecord, error) {
	if s.Cache != nil {
		if rec, ok := s.Cache.Get(mode, number); ok {
			s.Logger.Debug("cache hit", map[string]interface{}{"number": number.String(), "mode": string(mode)})
			return rec, nil
		}
	}

	rec, err := s.MathService.Dispatch(ctx, number, mode)
	if err != nil {
		return domain.ResultRecord{}, err
	}
	if s.Cache != nil {
		s.Cache.Set(mode, number, rec)
	}
	return rec, nil
}

// FillPrime asks the prime endpoint about the entry at index and records the
// answer on that entry. An entry that already has prime is returned as is.
// When the entry is cleared while the request is in flight the answer is
// dropped and domain.ErrStaleEntry is returned.
func (s *Service) FillPrime(ctx context.Context, index int) (domain.ResultRecord, error) {
	return s.fill(ctx, index, domain.ModePrime)
}

// FillFactorial is FillPrime for the factorial endpoint.
func (s *Service) FillFactorial(ctx context.Context, index int) (domain.ResultRecord, error) {
	return s.fill(ctx, index, domain.ModeFactorial)
}

func (s *Service) fill(ctx context.Context, index int, mode domain.Mode) (domain.ResultRecord, error) {
	if err := s.ready(); err != nil {
		return domain.ResultRecord{}, err
	}
	entry, err := s.History.At(index)
	if err != nil {
		return domain.ResultRecord{}, err
	}
	return s.fillEntry(ctx, entry, mode)
}

func (s *Service) fillEntry(ctx context.Context, entry domain.ResultRecord, mode domain.Mode) (domain.ResultRecord, error) {
	var patch domain.ResultPatch
	switch mode {
	case domain.ModePrime:
		if entry.HasPrime() {
			return entry, nil
		}
		prime, err := s.checkPrime(ctx, entry.Number)
		if err != nil {
			return domain.ResultRecord{}, err
		}
		patch = domain.PrimePatch(prime)
	case domain.ModeFactorial:
		if entry.HasFactorial() {
			return entry, nil
		}
		factorial, err := s.calculateFactorial(ctx, entry.Number)
		if err != nil {
			return domain.ResultRecord{}, err
		}
		patch = domain.FactorialPatch(factorial)
	default:
		return domain.ResultRecord{}, fmt.Errorf("%w: %q", domain.ErrUnknownMode, mode)
	}

	updated, err := s.History.UpdateByID(ctx, entry.ID, patch)
	if err != nil {
		if errors.Is(err, domain.ErrStaleEntry) {
			s.Logger.Warn("dropping result for removed entry", map[string]interface{}{
				"id":     entry.ID,
				"number": entry.Number.String(),
			})
		}
		return domain.ResultRecord{}, err
	}
	return updated, nil
}

func (s *Service) checkPrime(ctx context.Context, number domain.Number) (bool, error) {
	if s.Cache != nil {
		if rec, ok := s.Cache.Get(domain.ModePrime, number); ok && rec.Prime != nil {
			return *rec.Prime, nil
		}
	}
	prime, err := s.MathService.CheckPrime(ctx, number)
	if err != nil {
		return false, err
	}
	if s.Cache != nil {
		s.Cache.Set(domain.ModePrime, number, domain.ResultRecord{Number: number, Prime: domain.BoolPtr(prime)})
	}
	return prime, nil
}

func (s *Service) calculateFactorial(ctx context.Context, number domain.Number) (string, error) {
	if s.Cache != nil {
		if rec, ok := s.Cache.Get(domain.ModeFactorial, number); ok && rec.Factorial != nil {
			return *rec.Factorial, nil
		}
	}
	factorial, err := s.MathService.CalculateFactorial(ctx, number)
	if err != nil {
		return "", err
	}
	if s.Cache != nil {
		s.Cache.Set(domain.ModeFactorial, number, domain.ResultRecord{Number: number, Factorial: domain.StringPtr(factorial)})
	}
	return factorial, nil
}

// FillMissing fills every absent prime and factorial field in the history,
// running at most FillConcurrency requests at a time. It returns how many
// fields were filled and the first error; the first error cancels the
// requests still pending.
func (s *Service) FillMissing(ctx context.Context) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}

	limit := s.FillConcurrency
	if limit <= 0 {
		limit = domain.DefaultFillConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var filled atomic.Int64
	for _, entry := range s.History.Entries() {
		for _, mode := range entry.Missing() {
			g.Go(func() error {
				if _, err := s.fillEntry(gctx, entry, mode); err != nil {
					return fmt.Errorf("fill %s for %s: %w", mode, entry.Number, err)
				}
				filled.Add(1)
				return nil
			})
		}
	}

	err := g.Wait()
	n := int(filled.Load())
	s.Logger.Info("filled missing results", map[string]interface{}{"filled": n})
	return n, err
}

// Clear empties the history and purges the response cache.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.History.Clear(ctx); err != nil {
		return err
	}
	if s.Cache != nil {
		s.Cache.Clear()
	}
	s.Logger.Info("history cleared", nil)
	return nil
}
